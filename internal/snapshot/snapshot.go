// Package snapshot persists synthetic document collections.
//
// A snapshot file is a 6-byte header followed by a payload. The header is
// the magic "SDOM", a format version and a compression tag; the payload is
// the deterministic CBOR encoding of a Snapshot, compressed as tagged.
package snapshot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/klauspost/compress/zstd"
)

// FormatVersion is the current snapshot format version.
const FormatVersion = 1

var magic = [4]byte{'S', 'D', 'O', 'M'}

const headerSize = len(magic) + 2

// Compression identifies how a snapshot payload is compressed. The values
// are stored in snapshot headers.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZstd Compression = 1
)

// String returns the name of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Compression) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseCompression parses a compression name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}

// Snapshot is the persisted state of a document collection.
type Snapshot struct {
	Version      int                 `cbor:"version"`
	CreatedAt    time.Time           `cbor:"createdAt"`
	Documents    []*synthetic.Node   `cbor:"documents"`
	Dependencies []*graph.Dependency `cbor:"dependencies,omitempty"`
}

// New creates a snapshot of docs and the dependencies they were
// evaluated against.
func New(docs []*synthetic.Node, g *graph.DependencyGraph) *Snapshot {
	return &Snapshot{
		Version:      FormatVersion,
		CreatedAt:    time.Now().UTC(),
		Documents:    docs,
		Dependencies: g.Dependencies(),
	}
}

// Graph rebuilds the dependency graph stored in the snapshot.
func (s *Snapshot) Graph() *graph.DependencyGraph {
	return graph.NewDependencyGraph(s.Dependencies...)
}

// Fingerprint returns the fingerprint of the snapshot's documents.
func (s *Snapshot) Fingerprint() (Hash, error) {
	return Fingerprint(s.Documents)
}

// zstd encoders and decoders are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("snapshot: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("snapshot: zstd decoder initialization failed: " + err.Error())
	}
}

// Encode serializes s.
func Encode(s *Snapshot, compression Compression) ([]byte, error) {
	payload, err := Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, errors.ErrCodeEncodeFailed, "encode snapshot")
	}

	switch compression {
	case CompressionNone:
	case CompressionZstd:
		payload = zstdEncoder.EncodeAll(payload, nil)
	default:
		return nil, errors.NewValidationError(errors.ErrCodeEncodeFailed, "unsupported compression "+compression.String())
	}

	out := make([]byte, 0, headerSize+len(payload))
	out = append(out, magic[:]...)
	out = append(out, FormatVersion, byte(compression))
	return append(out, payload...), nil
}

// Header describes an encoded snapshot without decoding its payload.
type Header struct {
	Version     int         `json:"version" yaml:"version"`
	Compression Compression `json:"compression" yaml:"compression"`
	PayloadSize int         `json:"payloadSize" yaml:"payloadSize"`
}

// ReadHeader parses the header of an encoded snapshot.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < headerSize || !bytes.Equal(data[:len(magic)], magic[:]) {
		return Header{}, errors.NewValidationError(errors.ErrCodeDecodeFailed, "not a snapshot")
	}
	h := Header{
		Version:     int(data[len(magic)]),
		Compression: Compression(data[len(magic)+1]),
		PayloadSize: len(data) - headerSize,
	}
	if h.Version != FormatVersion {
		return h, errors.NewValidationError(errors.ErrCodeDecodeFailed, fmt.Sprintf("unsupported snapshot version %d", h.Version))
	}
	return h, nil
}

// Payload returns the decompressed CBOR payload of an encoded snapshot.
func Payload(data []byte) ([]byte, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	payload := data[headerSize:]

	switch h.Compression {
	case CompressionNone:
		return payload, nil
	case CompressionZstd:
		decoded, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, errors.WrapValidation(err, errors.ErrCodeDecodeFailed, "decompress snapshot")
		}
		return decoded, nil
	default:
		return nil, errors.NewValidationError(errors.ErrCodeDecodeFailed, "unsupported compression "+h.Compression.String())
	}
}

// Decode parses an encoded snapshot.
func Decode(data []byte) (*Snapshot, error) {
	payload, err := Payload(data)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := Unmarshal(payload, &s); err != nil {
		return nil, errors.WrapValidation(err, errors.ErrCodeDecodeFailed, "decode snapshot")
	}
	return &s, nil
}

// Save writes s to path atomically.
func Save(path string, s *Snapshot, compression Compression) error {
	data, err := Encode(s, compression)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapIO(err, errors.ErrCodeEncodeFailed, dir)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeEncodeFailed, dir)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WrapIO(err, errors.ErrCodeEncodeFailed, tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO(err, errors.ErrCodeEncodeFailed, tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WrapIO(err, errors.ErrCodeEncodeFailed, path)
	}
	return nil
}

// Load reads the snapshot stored at path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeFileNotFound, path)
	}
	return Decode(data)
}
