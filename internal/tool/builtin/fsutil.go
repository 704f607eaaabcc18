package builtin

import (
	"io/fs"
	"os"
)

// fsFor returns a filesystem rooted at dir, used by glob and grep for
// doublestar pattern matching relative to a resolved workspace path.
func fsFor(dir string) fs.FS {
	return os.DirFS(dir)
}
