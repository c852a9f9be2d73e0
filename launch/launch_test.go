package launch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func newSelector(t *testing.T, cfg Config) *Selector {
	t.Helper()
	cfg.Log = log.NewLogger(log.DiscardHandler())
	s, err := NewSelector(cfg)
	require.NoError(t, err)
	return s
}

func TestFindModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/specs\n\ngo 1.22\n", 0o644)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	mod, err := FindModule(nested)
	require.NoError(t, err)
	assert.Equal(t, root, mod.Root)
	assert.Equal(t, "example.com/specs", mod.Path)
}

func TestFindModule_Invalid(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "this is not a go.mod\n", 0o644)

	_, err := FindModule(root)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoModule)
}

func TestSelect_GoFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/specs\n", 0o644)
	file := filepath.Join(root, "specs", "greet", "main.go")
	writeFile(t, file, "package main\n", 0o644)

	s := newSelector(t, Config{GoBinary: "/usr/local/go/bin/go"})
	spec, err := s.Select(file)
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/go/bin/go", spec.Command)
	assert.Equal(t, []string{"run", file}, spec.Args)
	assert.Equal(t, root, spec.Dir)
}

func TestSelect_DefaultGoBinary(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "main.go")
	writeFile(t, file, "package main\n", 0o644)

	s := newSelector(t, Config{})
	spec, err := s.Select(file)
	require.NoError(t, err)
	assert.Equal(t, DefaultGoBinary, spec.Command)
	assert.Equal(t, []string{"run", file}, spec.Args)
}

func TestSelect_Executable(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "spec.bin")
	writeFile(t, file, "#!/bin/sh\n", 0o755)

	s := newSelector(t, Config{})
	spec, err := s.Select(file)
	require.NoError(t, err)
	assert.Equal(t, file, spec.Command)
	assert.Empty(t, spec.Args)
	assert.Equal(t, root, spec.Dir)
}

func TestSelect_Errors(t *testing.T) {
	root := t.TempDir()
	plain := filepath.Join(root, "notes.txt")
	writeFile(t, plain, "hello", 0o644)

	s := newSelector(t, Config{})

	_, err := s.Select(plain)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no runtime configured")

	_, err = s.Select(filepath.Join(root, "missing.go"))
	require.Error(t, err)

	_, err = s.Select(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestSelect_ConfigFile(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "launch.yaml")
	writeFile(t, cfgPath, `runtimes:
  sh:
    command: bash
    args: [-e]
    env: [SPEC_MODE=ci]
  .go:
    command: gotip
    args: [run, -race]
`, 0o644)
	script := filepath.Join(root, "spec.sh")
	writeFile(t, script, "echo hi\n", 0o644)
	goFile := filepath.Join(root, "main.go")
	writeFile(t, goFile, "package main\n", 0o644)

	s := newSelector(t, Config{ConfigFile: cfgPath, GoBinary: "go"})

	spec, err := s.Select(script)
	require.NoError(t, err)
	assert.Equal(t, Spec{
		Command: "bash",
		Args:    []string{"-e", script},
		Dir:     root,
		Env:     []string{"SPEC_MODE=ci"},
	}, spec)

	spec, err = s.Select(goFile)
	require.NoError(t, err)
	assert.Equal(t, "gotip", spec.Command)
	assert.Equal(t, []string{"run", "-race", goFile}, spec.Args)
	assert.Equal(t, root, spec.Dir)
}

func TestLoadFile_Errors(t *testing.T) {
	root := t.TempDir()

	_, err := LoadFile(filepath.Join(root, "missing.yaml"))
	require.Error(t, err)

	noCommand := filepath.Join(root, "nocommand.yaml")
	writeFile(t, noCommand, "runtimes:\n  .py:\n    args: [-u]\n", 0o644)
	_, err = LoadFile(noCommand)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no command")

	invalid := filepath.Join(root, "invalid.yaml")
	writeFile(t, invalid, "runtimes: [1, 2\n", 0o644)
	_, err = LoadFile(invalid)
	require.Error(t, err)
}
