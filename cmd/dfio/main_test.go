package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justapithecus/dfio/dfio"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConvert_InvalidLevelFailsCleanly(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "in.csv", "a,b\n1,2\n")
	dst := filepath.Join(dir, "out.csv.gz")

	_, _, err := execute(t, "convert", src, dst, "--level", "0")
	require.Error(t, err)

	var cfgErr *dfio.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "no output may exist after a config failure")
}

func TestConvert_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "in.csv", "a,b\n1,x\n2,y\n")
	dst := filepath.Join(dir, "out.json.gz")

	out, _, err := execute(t, "convert", src, dst, "--out-format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 rows")

	_, statErr := os.Stat(dst)
	require.NoError(t, statErr)
}

func TestStat_PrintsShape(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "in.csv", "a,b\n1,x\n")

	out, _, err := execute(t, "stat", src)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows, 2 columns")
}

func TestConvert_RejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "in.csv", "a\n1\n")

	_, _, err := execute(t, "convert", src, filepath.Join(dir, "out.csv"), "--in-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
