package main

import (
	goimage "image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, goimage.NewRGBA(goimage.Rect(0, 0, w, h))))
}

func TestExecuteWritesExport(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "cephexport.log")
	t.Setenv("DENTALCEPH_LOGFILE", logFile)

	input := filepath.Join(dir, "ceph.png")
	writePNG(t, input, 120, 80)
	script := filepath.Join(dir, "steps.json")
	require.NoError(t, os.WriteFile(script, []byte(`[
		{"op":"tool","arg":"line"},
		{"op":"drag","x":10,"y":10,"x2":100,"y2":70}
	]`), 0o644))
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	err := execute(options{input: input, scriptPath: script, output: outDir, format: "png", configDir: dir})
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(outDir, "dentalceph.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, goimage.Rect(0, 0, 120, 80), img.Bounds())

	logged, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "Logging initialized")
}

func TestExecuteReturnsErrors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DENTALCEPH_LOGFILE", filepath.Join(dir, "cephexport.log"))

	err := execute(options{input: filepath.Join(dir, "missing.png"), output: dir, format: "png", configDir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load image")

	input := filepath.Join(dir, "ceph.png")
	writePNG(t, input, 40, 40)
	badScript := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badScript, []byte(`[{"op":"paint"}]`), 0o644))
	err = execute(options{input: input, scriptPath: badScript, output: dir, format: "png", configDir: dir})
	assert.ErrorIs(t, err, errUnknownOp)

	err = execute(options{input: input, output: filepath.Join(dir, "no", "such", "dir", "x.png"), format: "png", configDir: dir})
	assert.ErrorIs(t, err, errNothingExported)
}
