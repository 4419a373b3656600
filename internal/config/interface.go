package config

import (
	"context"
)

// Loader is the interface for a format-specific build-file loader.
type Loader interface {
	// Load reads every build file under the given paths and translates them
	// into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
