package engine

import (
	"os"
	"path/filepath"

	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/store"
)

// projectContext is the read-only view handed to framework resolvers.
type projectContext struct {
	root string
	st   *store.Store
}

func (c *projectContext) ReadFile(relPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(c.root, filepath.FromSlash(relPath)))
}

func (c *projectContext) FileExists(relPath string) bool {
	info, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(relPath)))
	return err == nil && !info.IsDir()
}

func (c *projectContext) AllFiles() []string {
	files, err := c.st.AllFiles()
	if err != nil {
		return nil
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func (c *projectContext) NodesInFile(relPath string) ([]*graph.Node, error) {
	return c.st.GetNodesByFile(relPath)
}
