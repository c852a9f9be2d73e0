// Package launch decides how a spec file is started: which command runs it,
// with which extra arguments, and from which directory.
package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
)

// DefaultGoBinary runs .go spec files unless overridden.
const DefaultGoBinary = "go"

// Spec is everything needed to start the worker for one file.
type Spec struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
}

// Config holds the Selector's settings.
type Config struct {
	Log      log.Logger
	GoBinary string
	// ConfigFile is an optional YAML file of runtime overrides.
	ConfigFile string
}

// Selector maps spec files to launch specs by file extension. Files with no
// configured runtime are executed directly.
type Selector struct {
	log      log.Logger
	runtimes map[string]Runtime
}

// NewSelector builds a selector with the built-in .go runtime, overridden
// by the entries of cfg.ConfigFile.
func NewSelector(cfg Config) (*Selector, error) {
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	goBinary := cfg.GoBinary
	if goBinary == "" {
		goBinary = DefaultGoBinary
	}
	s := &Selector{
		log: cfg.Log.New("component", "launch"),
		runtimes: map[string]Runtime{
			".go": {Command: goBinary, Args: []string{"run"}, ModuleDir: true},
		},
	}
	if cfg.ConfigFile != "" {
		f, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		for ext, rt := range f.Runtimes {
			s.runtimes[ext] = rt
		}
		s.log.Debug("Loaded launch config", "file", cfg.ConfigFile, "runtimes", len(f.Runtimes))
	}
	return s, nil
}

// Select returns the launch spec for file.
func (s *Selector) Select(file string) (Spec, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return Spec{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Spec{}, fmt.Errorf("failed to stat spec file: %w", err)
	}
	if info.IsDir() {
		return Spec{}, fmt.Errorf("spec file %s is a directory", file)
	}

	rt, ok := s.runtimes[normalizeExt(filepath.Ext(abs))]
	if !ok {
		if info.Mode().Perm()&0o111 == 0 {
			return Spec{}, fmt.Errorf("no runtime configured for %s and it is not executable", file)
		}
		return Spec{Command: abs, Dir: filepath.Dir(abs)}, nil
	}

	spec := Spec{
		Command: rt.Command,
		Args:    append(append([]string{}, rt.Args...), abs),
		Dir:     filepath.Dir(abs),
		Env:     append([]string{}, rt.Env...),
	}
	if rt.ModuleDir {
		mod, err := FindModule(spec.Dir)
		switch {
		case err == nil:
			spec.Dir = mod.Root
		case errors.Is(err, ErrNoModule):
			s.log.Debug("Spec file is outside any Go module", "file", file)
		default:
			return Spec{}, err
		}
	}
	return spec, nil
}
