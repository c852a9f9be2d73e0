package launch

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Runtime is how files of one extension are launched. The spec file path
// is appended after Args.
type Runtime struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
	Env     []string `yaml:"env,omitempty"`
	// ModuleDir runs the command from the enclosing Go module.
	ModuleDir bool `yaml:"moduleDir,omitempty"`
}

// File is the launch configuration file.
//
//	runtimes:
//	  .go:
//	    command: go
//	    args: [run, -race]
//	    moduleDir: true
//	  .sh:
//	    command: bash
type File struct {
	Runtimes map[string]Runtime `yaml:"runtimes"`
}

// LoadFile reads and validates a launch configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read launch config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse launch config: %w", err)
	}
	runtimes := make(map[string]Runtime, len(f.Runtimes))
	for ext, rt := range f.Runtimes {
		if rt.Command == "" {
			return nil, fmt.Errorf("runtime for %q has no command", ext)
		}
		runtimes[normalizeExt(ext)] = rt
	}
	f.Runtimes = runtimes
	return &f, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
