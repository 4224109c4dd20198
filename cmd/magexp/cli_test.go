package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bob-anderson-ok/magexp/internal/config"
)

func TestWavelengthCmd(t *testing.T) {
	for in, want := range map[string]string{
		"300e3":  "1.9687e-12 m\n",
		"200000": "2.5079e-12 m\n",
	} {
		var buf bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&buf)
		require.NoError(t, runWavelength(cmd, []string{in}))
		assert.Equal(t, want, buf.String(), in)
	}

	cmd := &cobra.Command{}
	require.Error(t, runWavelength(cmd, []string{"fast"}))
	require.Error(t, runWavelength(cmd, []string{"-5"}))
}

func TestRunCmd(t *testing.T) {
	logger = zap.NewNop()

	dir := t.TempDir()
	file := filepath.Join(dir, "uniform.json5")
	require.NoError(t, os.WriteFile(file, []byte(`{
  title: "uniform",
  show_input_bool: true,
  output_folder: "ignored",
  mesh: {p1_nm: [0, 0, 0], p2_nm: [10, 10, 4], cell_nm: [1, 1, 2]},
  magnetisation: {pattern: "uniform", ms: 8e5, direction: [0, 1, 0]},
  xray: {},
  magnetometry: {applied_field: [1e5, 0, 0]},
}`), 0o644))

	outDir = filepath.Join(dir, "out")
	defer func() { outDir = "" }()

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runExperiment(cmd, []string{file}))

	text := buf.String()
	assert.Contains(t, text, "Printout of complete experiment file")
	assert.Contains(t, text, "xray_saxs")
	assert.Contains(t, text, "Magnetisation is (0, 8e+05, 0) A/m")
	for _, name := range []string{"magnetisation_mz", "xray_holography", "xray_saxs"} {
		_, err := os.Stat(filepath.Join(outDir, name+".png"))
		require.NoError(t, err, name)
	}
}

func TestRunCmd_Errors(t *testing.T) {
	logger = zap.NewNop()
	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	err := runExperiment(cmd, []string{filepath.Join(t.TempDir(), "missing.json5")})
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	bad := filepath.Join(t.TempDir(), "bad.json5")
	require.NoError(t, os.WriteFile(bad, []byte(`{mesh: {}}`), 0o644))
	err = runExperiment(cmd, []string{bad})
	require.Error(t, err)
	assert.Equal(t, 4, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(fmt.Errorf("boom")))
	assert.Equal(t, 130, exitCode(fmt.Errorf("stage: %w", context.Canceled)))
	assert.Equal(t, 4, exitCode(fmt.Errorf("file: %w", &config.KeyError{Key: "mesh", Problem: "not found"})))
}
