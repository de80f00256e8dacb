package markdown

import (
	"crypto/sha256"
	"encoding/hex"

	"gopkg.in/yaml.v3"
)

// fingerprintLength is the number of hex characters kept from the digest.
// 64 bits is plenty for detecting drift in a personal catalog.
const fingerprintLength = 16

// Fingerprint computes a short, stable hash of the document's content
// fields. Two documents that are content-equal produce the same value no
// matter which side of the sync they came from: the hash is taken over a
// canonical YAML rendering of the content map, whose keys the encoder
// emits in sorted order.
func (d *Document) Fingerprint() string {
	data, err := yaml.Marshal(d.contentMap())
	if err != nil {
		// Cannot happen for a map of scalars and string slices.
		data = []byte(err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}
