package dfio

import (
	"fmt"
	"path"
	"strings"
)

// -----------------------------------------------------------------------------
// Destination resolution
// -----------------------------------------------------------------------------

// TransportKind classifies where a destination's bytes go.
type TransportKind int

const (
	// TransportLocal is a local filesystem path.
	TransportLocal TransportKind = iota

	// TransportRemote is an object-store URI such as "s3://bucket/key".
	TransportRemote
)

func (k TransportKind) String() string {
	if k == TransportRemote {
		return "remote"
	}
	return "local"
}

// DestinationSpec is the resolved description of one destination path:
// transport kind, URI scheme (empty for local), compression codec inferred
// from the path suffix, and the caller-supplied format.
//
// Resolution is suffix-driven and idempotent: resolving the same path twice
// yields the same spec. Specs are computed once per write call and are
// immutable afterwards.
type DestinationSpec struct {
	Path        string
	Kind        TransportKind
	Scheme      string
	Compression Compression
	Format      Format
}

// compressionSuffixes maps recognized trailing suffixes to codecs. Inference
// strips exactly one of these from the path tail; anything else means "none".
var compressionSuffixes = []struct {
	ext   string
	codec Compression
}{
	{".gz", CompressionGzip},
	{".bz2", CompressionBzip2},
	{".zst", CompressionZstd},
	{".zstd", CompressionZstd},
}

// resolveDestination classifies a raw path string into a DestinationSpec.
//
// A path is remote when it carries a URI scheme ("s3://..."); everything else
// is local. The format is supplied by the caller, never inferred from the
// path.
func resolveDestination(rawPath string, format Format) (DestinationSpec, error) {
	if rawPath == "" {
		return DestinationSpec{}, &ConfigError{Reason: "destination path is empty"}
	}
	if !format.valid() {
		return DestinationSpec{}, &ConfigError{Reason: fmt.Sprintf("unknown format %d", int(format))}
	}

	spec := DestinationSpec{
		Path:   rawPath,
		Kind:   TransportLocal,
		Format: format,
	}
	if scheme := uriScheme(rawPath); scheme != "" {
		spec.Kind = TransportRemote
		spec.Scheme = scheme
	}
	spec.Compression = inferCompression(rawPath)
	return spec, nil
}

// inferCompression returns the codec implied by the path's trailing suffix.
func inferCompression(p string) Compression {
	lower := strings.ToLower(p)
	for _, s := range compressionSuffixes {
		if strings.HasSuffix(lower, s.ext) {
			return s.codec
		}
	}
	return CompressionNone
}

// uriScheme returns the URI scheme of p, or "" for plain paths. Single-letter
// schemes are not recognized so Windows drive paths stay local.
func uriScheme(p string) string {
	idx := strings.Index(p, "://")
	if idx < 2 {
		return ""
	}
	scheme := p[:idx]
	for _, r := range scheme {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '+' && r != '-' && r != '.' {
			return ""
		}
	}
	return strings.ToLower(scheme)
}

// -----------------------------------------------------------------------------
// Chunk naming
// -----------------------------------------------------------------------------

// chunkIndexWidth is the zero-padding width of chunk indices. Four digits keep
// lexical order equal to numeric order for any realistic chunk count.
const chunkIndexWidth = 4

// chunkPath derives the output path for chunk index of a multi-chunk write.
//
// The index is inserted before the format and compression suffixes so
// siblings share the base name and sort in chunk order:
//
//	events.csv.gz -> events-part-0000.csv.gz
//	events.parquet -> events-part-0000.parquet
//	events -> events-part-0000
//
// Single-chunk writes never call this; they use the path unmodified.
func chunkPath(rawPath string, index int) string {
	base := rawPath
	var suffix string

	lower := strings.ToLower(base)
	for _, s := range compressionSuffixes {
		if strings.HasSuffix(lower, s.ext) {
			suffix = base[len(base)-len(s.ext):]
			base = base[:len(base)-len(s.ext)]
			break
		}
	}
	if ext := path.Ext(base); ext != "" {
		suffix = ext + suffix
		base = base[:len(base)-len(ext)]
	}

	return fmt.Sprintf("%s-part-%0*d%s", base, chunkIndexWidth, index, suffix)
}
