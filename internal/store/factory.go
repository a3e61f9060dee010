package store

import "fmt"

// NewStore opens a checkpoint store of the given kind. "fs" (the default)
// treats path as a base directory, "sqlite" as a database file.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "fs":
		return NewFSStore(path)
	case "sqlite":
		return newSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes stores that hold resources.
func CloseIfSupported(s Store) error {
	closer, ok := s.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
