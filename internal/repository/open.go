package repository

import "fmt"

// Open returns the repository for backend ("yaml" or "sqlite") at path.
// The returned close func is a no-op for the file backend.
func Open(backend, path string) (Repository, func() error, error) {
	switch backend {
	case "", "yaml":
		return NewFileRepository(path), func() error { return nil }, nil
	case "sqlite":
		repo, err := NewDBRepository(path)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}
