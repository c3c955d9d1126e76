package v1

import (
    "github.com/tinoosan/budget/internal/storage/memory"
    "github.com/tinoosan/budget/internal/storage/postgres"
    "github.com/tinoosan/budget/internal/storage/sqlite"
)

// Compile-time assertions that every persistence adapter can back /readyz.
var (
    _ ReadyChecker = (*memory.Store)(nil)
    _ ReadyChecker = (*postgres.Store)(nil)
    _ ReadyChecker = (*sqlite.Store)(nil)
)
