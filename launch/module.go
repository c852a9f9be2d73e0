package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ErrNoModule is returned when no go.mod encloses a directory.
var ErrNoModule = errors.New("no enclosing go.mod")

// Module is a Go module found on disk.
type Module struct {
	Root string
	Path string
}

// FindModule walks up from dir to the nearest go.mod and parses it.
func FindModule(dir string) (Module, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return Module{}, err
	}
	for {
		goModPath := filepath.Join(dir, "go.mod")
		content, err := os.ReadFile(goModPath)
		switch {
		case err == nil:
			modFile, err := modfile.Parse(goModPath, content, nil)
			if err != nil {
				return Module{}, fmt.Errorf("failed to parse go.mod: %w", err)
			}
			if modFile.Module == nil || modFile.Module.Mod.Path == "" {
				return Module{}, fmt.Errorf("could not find module name in %s", goModPath)
			}
			return Module{Root: dir, Path: modFile.Module.Mod.Path}, nil
		case !errors.Is(err, os.ErrNotExist):
			return Module{}, fmt.Errorf("failed to read go.mod: %w", err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Module{}, ErrNoModule
		}
		dir = parent
	}
}
