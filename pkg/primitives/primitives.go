package primitives

import (
	"hash/fnv"
)

type Filepath string

// Hash derives the FileID for a source file from its path using FNV-1a.
// The same path always produces the same ID.
func (f Filepath) Hash() FileID {
	h := fnv.New64a()
	h.Write([]byte(f))
	id := FileID(h.Sum64())
	if !id.IsValid() {
		// The zero hash collides with the invalid sentinel.
		return FileID(1)
	}
	return id
}
