package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMissingFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.png")
	var stdout, stderr bytes.Buffer

	code := run([]string{"missing.csv", out}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Equal(t, "Error: File 'missing.csv' not found.\n"+usage+"\n"+example+"\n", stdout.String())
	assert.NoFileExists(t, out)
}

func TestRunSavesSingleCell(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "grid.csv")
	out := filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(input, []byte("5.0\n"), 0644))
	var stdout, stderr bytes.Buffer

	code := run([]string{input, out}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "Saved visualization to "+out+"\n", stdout.String())
	assert.FileExists(t, out)
}

func TestRunRaggedInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "grid.csv")
	out := filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(input, []byte("1,2\n3\n"), 0644))
	var stdout, stderr bytes.Buffer

	code := run([]string{input, out}, &stdout, &stderr)

	assert.NotZero(t, code)
	assert.Contains(t, stderr.String(), "Error:")
	assert.NoFileExists(t, out)
}

func TestRunUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "grid.csv")
	out := filepath.Join(dir, "out.xyz")
	require.NoError(t, os.WriteFile(input, []byte("1\n"), 0644))
	var stdout, stderr bytes.Buffer

	code := run([]string{input, out}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unsupported output format")
	assert.NoFileExists(t, out)
}

func TestRunTooManyArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"a.csv", "b.png", "c"}, &stdout, &stderr))
}
