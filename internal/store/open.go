package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"lumera/internal/types"
)

// Options selects and configures a Store.
type Options struct {
	Driver      string
	SQLitePath  string
	DatabaseURL string
	Compress    bool
	Logger      *slog.Logger
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Open builds the Store described by opts. The returned closer releases any
// underlying connection and is never nil.
func Open(ctx context.Context, opts Options) (types.Store, io.Closer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		s      types.Store
		closer io.Closer = closerFunc(func() error { return nil })
	)
	switch opts.Driver {
	case DriverMemory, "":
		s = NewMemoryStore()
	case DriverSQLite:
		sq, err := NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		s, closer = sq, sq
	case DriverPostgres:
		pg, pool, err := OpenPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		s = pg
		closer = closerFunc(func() error { pool.Close(); return nil })
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}

	if opts.Compress {
		cs, err := NewCompressedStore(s)
		if err != nil {
			closer.Close()
			return nil, nil, err
		}
		s = cs
	}

	logger.InfoContext(ctx, "storage opened", "driver", opts.Driver, "compressed", opts.Compress)
	return s, closer, nil
}
