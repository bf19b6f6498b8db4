package repo

import (
	"os"

	"github.com/odvcencio/grit/pkg/object"
)

func modeFromFileInfo(info os.FileInfo) uint32 {
	if info.Mode()&0o111 != 0 {
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}

func normalizeFileMode(mode uint32) uint32 {
	if mode == object.TreeModeExecutable {
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}

func filePermFromMode(mode uint32) os.FileMode {
	if normalizeFileMode(mode) == object.TreeModeExecutable {
		return 0o755
	}
	return 0o644
}
