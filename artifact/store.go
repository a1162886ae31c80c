// Package artifact stores named byte blobs produced during runs, such as
// generated reports or rendered prompts. Store is the contract; InMemory
// serves tests and prototypes, Dir persists to a directory on disk.
package artifact

import "errors"

// ErrNotFound is returned when no artifact exists under the given name.
var ErrNotFound = errors.New("artifact not found")

// Store persists named artifacts. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save stores (or overwrites) the artifact bytes under name.
	Save(name string, data []byte) error

	// Get returns the stored bytes or ErrNotFound.
	Get(name string) ([]byte, error)

	// List returns all stored artifact names.
	List() ([]string, error)

	// Delete removes the artifact or returns ErrNotFound.
	Delete(name string) error
}
