package repo

import (
	"github.com/odvcencio/grit/pkg/object"
)

const gritDirName = ".grit"

// Repo represents an opened Grit repository.
type Repo struct {
	RootDir string        // working directory root
	GritDir string        // .grit/ directory
	Store   *object.Store // content-addressed object store
}
