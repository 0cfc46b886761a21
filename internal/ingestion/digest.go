package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Digest accumulates a sha-256 over every byte written to it.
type Digest struct {
	h hash.Hash
	n int64
}

func NewDigest() *Digest {
	return &Digest{h: sha256.New()}
}

func (d *Digest) Write(p []byte) (int, error) {
	n, err := d.h.Write(p)
	d.n += int64(n)
	return n, err
}

// Size is the number of bytes seen so far.
func (d *Digest) Size() int64 { return d.n }

// Sum returns the lowercase hex digest of everything written.
func (d *Digest) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
