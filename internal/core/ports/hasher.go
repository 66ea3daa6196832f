package ports

// ContentHasher computes content hashes of lock source references.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type ContentHasher interface {
	// HashPath hashes a file or directory tree deterministically.
	HashPath(path string) (string, error)
}
