// Package store provides durable key to blob persistence for the mood and
// prediction ledgers. Every implementation satisfies types.Store.
package store

import (
	"fmt"

	"lumera/internal/types"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func storageErr(op, key string, err error) error {
	return types.NewAppErrorWithDetails(
		types.ErrCodeInternalStorage,
		fmt.Sprintf("%s %s failed", op, key),
		err,
		map[string]any{"key": key},
	)
}
