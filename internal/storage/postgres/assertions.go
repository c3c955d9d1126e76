package postgres

import "github.com/tinoosan/budget/internal/schema"

var _ schema.KV = (*Store)(nil)
