package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *Snapshot {
	doc := testutils.CreateTestDocument()
	doc.Children[0].Sheet = &synthetic.StyleSheet{Rules: []synthetic.StyleRule{
		{Selector: ".page", Declarations: []synthetic.Declaration{{Name: "color", Value: "red"}}},
	}}
	doc.Children[0].Metadata = map[string]any{"selected": true, "label": "Page"}
	return New([]*synthetic.Node{doc}, testutils.CreateTestGraph())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			original := testSnapshot()

			data, err := Encode(original, compression)
			require.NoError(t, err)

			header, err := ReadHeader(data)
			require.NoError(t, err)
			assert.Equal(t, FormatVersion, header.Version)
			assert.Equal(t, compression, header.Compression)

			decoded, err := Decode(data)
			require.NoError(t, err)
			require.Len(t, decoded.Documents, 1)
			assert.True(t, synthetic.Equal(original.Documents[0], decoded.Documents[0]),
				"decoded document differs:\n%s", synthetic.Stringify(decoded.Documents[0]))
			assert.True(t, original.CreatedAt.Equal(decoded.CreatedAt))

			g := decoded.Graph()
			assert.Equal(t, 1, g.Len())
			assert.NotNil(t, graph.GetNode("inst1", g))
		})
	}
}

func TestVariantPresenceSurvivesEncoding(t *testing.T) {
	instance := synthetic.NewElement("i", "div", "inst", nil)
	instance.Variant = map[string]bool{}
	plain := synthetic.NewElement("p", "div", "el", nil)
	doc := synthetic.NewDocument("m", instance, plain)

	data, err := Encode(&Snapshot{Version: FormatVersion, Documents: []*synthetic.Node{doc}}, CompressionNone)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)

	children := decoded.Documents[0].Children
	require.Len(t, children, 2)
	assert.True(t, synthetic.IsInstanceElement(children[0]))
	assert.False(t, synthetic.IsInstanceElement(children[1]))
	assert.Equal(t, synthetic.KindElement, children[0].Kind)
}

func TestZstdShrinksRepetitiveDocuments(t *testing.T) {
	var children []*synthetic.Node
	for i := 0; i < 200; i++ {
		children = append(children, synthetic.NewText(
			"t"+string(rune('a'+i%26))+string(rune('a'+i/26)), "src", "the same text over and over"))
	}
	s := &Snapshot{Version: FormatVersion, Documents: []*synthetic.Node{synthetic.NewDocument("m", children...)}}

	plain, err := Encode(s, CompressionNone)
	require.NoError(t, err)
	compressed, err := Encode(s, CompressionZstd)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(plain))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"wrong magic", []byte("JUNK\x01\x00")},
		{"future version", []byte("SDOM\x09\x00")},
		{"unknown compression", []byte("SDOM\x01\x07")},
		{"truncated payload", []byte("SDOM\x01\x00\xa1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.sdom")
	original := testSnapshot()

	require.NoError(t, Save(path, original, CompressionZstd))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, synthetic.Equal(original.Documents[0], loaded.Documents[0]))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")

	_, err = Load(filepath.Join(t.TempDir(), "missing.sdom"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestFingerprint(t *testing.T) {
	a := []*synthetic.Node{testutils.CreateTestDocument()}
	b := []*synthetic.Node{testutils.CreateTestDocument()}

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb, "equal content, equal fingerprint")
	assert.False(t, fa.IsZero())
	assert.Len(t, fa.String(), 64)
	assert.Len(t, fa.Short(), 12)

	b[0].Children[0].ClassName = "changed"
	fc, err := Fingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fc)

	node, err := FingerprintNode(a[0])
	require.NoError(t, err)
	assert.NotEqual(t, fa, node, "node and collection hashes use separate domains")
}

func TestFingerprintIgnoresCreationTime(t *testing.T) {
	s1 := testSnapshot()
	s2 := testSnapshot()
	s2.CreatedAt = s1.CreatedAt.Add(time.Hour)

	f1, err := s1.Fingerprint()
	require.NoError(t, err)
	f2, err := s2.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, c)

	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)

	_, err = ParseCompression("lz4")
	assert.Error(t, err)

	text, err := CompressionZstd.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "zstd", string(text))
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)

	notation, err := Diagnose(data)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1, "b": 2}`, notation)
}
