package registry

import "fmt"

var (
	// ErrCorpusNotFound is returned when the named corpus does not exist in
	// the registry.
	ErrCorpusNotFound = fmt.Errorf("corpus not found")

	// ErrFileNotFound is returned when the named document does not exist in
	// its corpus.
	ErrFileNotFound = fmt.Errorf("file not found")
)
