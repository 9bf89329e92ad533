package snapshot

import (
	"encoding/hex"

	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex digits of h.
func (h Hash) Short() string {
	return h.String()[:12]
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

type domainKey [32]byte

// Domain separation keys: the ASCII domain name, zero-padded to 32 bytes.
// Changing a key invalidates every fingerprint in its domain.
var (
	documentsDomainKey = domainKey{
		's', 'y', 'n', 't', 'h', 'd', 'o', 'm', '.', 'd', 'o', 'c', 'u', 'm', 'e', 'n',
		't', 's', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	nodeDomainKey = domainKey{
		's', 'y', 'n', 't', 'h', 'd', 'o', 'm', '.', 'n', 'o', 'd', 'e', 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// Fingerprint returns the content hash of a document collection. Equal
// collections, in the same order, have equal fingerprints.
func Fingerprint(docs []*synthetic.Node) (Hash, error) {
	data, err := Marshal(docs)
	if err != nil {
		return Hash{}, err
	}
	return keyedHash(documentsDomainKey, data), nil
}

// FingerprintNode returns the content hash of a single subtree.
func FingerprintNode(n *synthetic.Node) (Hash, error) {
	data, err := Marshal(n)
	if err != nil {
		return Hash{}, err
	}
	return keyedHash(nodeDomainKey, data), nil
}

func keyedHash(key domainKey, data []byte) Hash {
	// NewKeyed only fails for keys that are not 32 bytes long.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("snapshot: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
