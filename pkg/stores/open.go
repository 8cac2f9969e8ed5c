package stores

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/ukg/pkg/stores/file"
	"github.com/theapemachine/ukg/pkg/stores/s3"
	"github.com/theapemachine/ukg/pkg/stores/sqlite"
)

/*
Config selects and configures a snapshot backend.
*/
type Config struct {
	Backend string
	Path    string
	S3      s3.Config
}

/*
DefaultConfig keeps snapshots in process memory.
*/
func DefaultConfig() Config {
	return Config{Backend: "memory"}
}

/*
Open returns the backend named by cfg.Backend. Backends that leave the
process are wrapped in a circuit breaker.
*/
func Open(ctx context.Context, cfg Config) (SnapshotStore, error) {
	log.Debug("opening snapshot store", "backend", cfg.Backend, "path", cfg.Path)

	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return file.New(cfg.Path)
	case "sqlite":
		store, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}

		return WithBreaker(store, "sqlite"), nil
	case "s3":
		store, err := s3.New(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}

		return WithBreaker(store, "s3"), nil
	}

	return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
}
