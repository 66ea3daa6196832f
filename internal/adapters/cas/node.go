package cas

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the content-addressed store Graft node.
const NodeID graft.ID = "adapter.cas_store"

// storeFile is the build record file, kept under the user cache directory.
const storeFile = "build_records.json"

func init() {
	graft.Register(graft.Node[*Store]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Store, error) {
			dir, err := os.UserCacheDir()
			if err != nil {
				dir = "."
			}
			return NewStore(filepath.Join(dir, "strata", storeFile))
		},
	})
}
