package pmidnode

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/frrp/MaidSafe-Vault/vaultpb"
)

// FileChunkStore is a local-development ChunkStore backed by one file per
// chunk under a directory, named by the chunk's hex identity. It exists so
// cmd/vaultd has a concrete dependency to wire into a Pmid Node without
// requiring a production-grade object store (spec.md §1 excludes chunk
// storage internals from scope).
type FileChunkStore struct {
	dir string
}

// NewFileChunkStore returns a FileChunkStore rooted at dir, creating it if
// absent.
func NewFileChunkStore(dir string) (*FileChunkStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating chunk store directory")
	}
	return &FileChunkStore{dir: dir}, nil
}

func (f *FileChunkStore) path(name vaultpb.Identity) string {
	return filepath.Join(f.dir, hex.EncodeToString(name[:]))
}

// Get reads a chunk's bytes, reporting found=false rather than an error
// when absent.
func (f *FileChunkStore) Get(name vaultpb.Identity) (data []byte, found bool, err error) {
	data, err = os.ReadFile(f.path(name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "reading chunk")
	}
	return data, true, nil
}

// Put writes a chunk's bytes, overwriting any existing copy under the same
// identity (chunks are content-addressed, so a collision implies identical
// content).
func (f *FileChunkStore) Put(name vaultpb.Identity, data []byte) error {
	return errors.Wrap(os.WriteFile(f.path(name), data, 0o644), "writing chunk")
}

// Delete removes a chunk. Absence is not an error.
func (f *FileChunkStore) Delete(name vaultpb.Identity) error {
	var err = os.Remove(f.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "deleting chunk")
}
