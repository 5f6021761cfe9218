package store

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open builds a Store on the named backend driver.
func Open(driver, path string, log *zap.Logger) (*Store, error) {
	var (
		b   Backend
		err error
	)
	switch driver {
	case DriverFile, "":
		b, err = OpenFile(path, log)
	case DriverSQLite:
		b, err = OpenSQLite(path)
	case DriverMemory:
		b = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return New(b, log), nil
}
