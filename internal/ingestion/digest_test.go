package ingestion

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestIsChunkingIndependent(t *testing.T) {
	payload := bytes.Repeat([]byte("a,b,c\n1,2,3\n"), 4096)
	want := sha256.Sum256(payload)

	for _, chunk := range []int{1, 7, 512, 64 << 10} {
		d := NewDigest()
		r := bytes.NewReader(payload)
		buf := make([]byte, chunk)
		_, err := io.CopyBuffer(d, struct{ io.Reader }{r}, buf)
		require.NoError(t, err)
		assert.Equal(t, hex.EncodeToString(want[:]), d.Sum(), "chunk=%d", chunk)
		assert.Equal(t, int64(len(payload)), d.Size())
	}
}

func TestDigestEmptyStream(t *testing.T) {
	d := NewDigest()
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", d.Sum())
	assert.Zero(t, d.Size())
}
