package dfio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSTransport_CreateMakesParentDirs(t *testing.T) {
	dir := t.TempDir()
	fs := NewFSTransport()

	path := filepath.Join(dir, "a", "b", "out.csv")
	sink, err := fs.Create(context.Background(), path)
	require.NoError(t, err)
	_, err = sink.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFSTransport_OpenMissingFile(t *testing.T) {
	fs := NewFSTransport()
	_, err := fs.Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTransport_CommitOnClose(t *testing.T) {
	mem := NewMemoryTransport()

	sink, err := mem.Create(context.Background(), "obj")
	require.NoError(t, err)
	_, err = sink.Write([]byte("partial"))
	require.NoError(t, err)

	// Invisible until Close.
	_, ok := mem.Object("obj")
	assert.False(t, ok)

	require.NoError(t, sink.Close())
	data, ok := mem.Object("obj")
	require.True(t, ok)
	assert.Equal(t, "partial", string(data))

	// Writes after Close fail.
	_, err = sink.Write([]byte("more"))
	assert.ErrorIs(t, err, os.ErrClosed)

	r, err := mem.Open(context.Background(), "obj")
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "partial", string(got))
}

func TestTransportMux_Routing(t *testing.T) {
	mem := NewMemoryTransport()
	remote := NewMemoryTransport()
	mux := NewTransportMux()
	mux.SetLocal(mem)
	mux.Register("s3", remote)

	local, err := resolveDestination("out.csv", FormatCSV)
	require.NoError(t, err)
	got, err := mux.transportFor(local)
	require.NoError(t, err)
	assert.Same(t, Transport(mem), got)

	s3spec, err := resolveDestination("s3://b/k.csv", FormatCSV)
	require.NoError(t, err)
	got, err = mux.transportFor(s3spec)
	require.NoError(t, err)
	assert.Same(t, Transport(remote), got)

	gcs, err := resolveDestination("gs://b/k.csv", FormatCSV)
	require.NoError(t, err)
	_, err = mux.transportFor(gcs)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
