package dfio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// -----------------------------------------------------------------------------
// Filesystem transport
// -----------------------------------------------------------------------------

// fsTransport implements Transport on the local filesystem.
type fsTransport struct{}

// NewFSTransport creates the local filesystem transport.
//
// Create makes any missing parent directories before opening the file;
// existing files are truncated, matching the overwrite semantics of the write
// pipeline.
func NewFSTransport() Transport {
	return &fsTransport{}
}

func (f *fsTransport) Create(_ context.Context, path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

func (f *fsTransport) Open(_ context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}
	return file, nil
}

// -----------------------------------------------------------------------------
// Memory transport
// -----------------------------------------------------------------------------

// memTransport implements Transport over an in-memory map.
type memTransport struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// MemoryTransport is an in-memory Transport for tests and examples. Objects
// become visible atomically when their sink is closed.
//
// MemoryTransport is safe for concurrent use.
type MemoryTransport struct {
	inner memTransport
}

// NewMemoryTransport creates an empty in-memory transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{inner: memTransport{data: make(map[string][]byte)}}
}

func (m *MemoryTransport) Create(_ context.Context, path string) (io.WriteCloser, error) {
	if path == "" {
		return nil, &ConfigError{Reason: "destination path is empty"}
	}
	return &memSink{t: m, path: path}, nil
}

func (m *MemoryTransport) Open(_ context.Context, path string) (io.ReadCloser, error) {
	m.inner.mu.RLock()
	data, ok := m.inner.data[path]
	m.inner.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return io.NopCloser(bytes.NewReader(cp)), nil
}

// Object returns the stored bytes for path and whether it exists.
func (m *MemoryTransport) Object(path string) ([]byte, bool) {
	m.inner.mu.RLock()
	defer m.inner.mu.RUnlock()
	data, ok := m.inner.data[path]
	return data, ok
}

// Paths returns every stored path.
func (m *MemoryTransport) Paths() []string {
	m.inner.mu.RLock()
	defer m.inner.mu.RUnlock()
	paths := make([]string, 0, len(m.inner.data))
	for p := range m.inner.data {
		paths = append(paths, p)
	}
	return paths
}

// memSink buffers writes and commits the object on Close.
type memSink struct {
	t    *MemoryTransport
	path string
	buf  bytes.Buffer
	done bool
}

func (s *memSink) Write(p []byte) (int, error) {
	if s.done {
		return 0, os.ErrClosed
	}
	return s.buf.Write(p)
}

func (s *memSink) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.t.inner.mu.Lock()
	s.t.inner.data[s.path] = s.buf.Bytes()
	s.t.inner.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------
// Transport mux
// -----------------------------------------------------------------------------

// TransportMux routes resolved destinations to transports: plain paths to
// the local transport, URIs to the transport registered for their scheme.
type TransportMux struct {
	local   Transport
	schemes map[string]Transport
}

// NewTransportMux creates a mux whose local transport is the filesystem.
func NewTransportMux() *TransportMux {
	return &TransportMux{
		local:   NewFSTransport(),
		schemes: make(map[string]Transport),
	}
}

// SetLocal replaces the transport used for plain (non-URI) paths.
func (m *TransportMux) SetLocal(t Transport) {
	m.local = t
}

// Register mounts a transport for a remote URI scheme, e.g. "s3".
func (m *TransportMux) Register(scheme string, t Transport) {
	m.schemes[scheme] = t
}

// transportFor returns the transport serving spec. A remote scheme with no
// registered transport is a configuration error, caught before any I/O.
func (m *TransportMux) transportFor(spec DestinationSpec) (Transport, error) {
	if spec.Kind == TransportLocal {
		return m.local, nil
	}
	t, ok := m.schemes[spec.Scheme]
	if !ok {
		return nil, &ConfigError{Reason: fmt.Sprintf("no transport registered for scheme %q (path %s)", spec.Scheme, spec.Path)}
	}
	return t, nil
}
