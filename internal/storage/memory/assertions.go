package memory

import (
	"github.com/tinoosan/budget/internal/schema"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	// Persistence adapter contract
	_ schema.KV = (*Store)(nil)
)
