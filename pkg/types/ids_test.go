package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPub(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestIsFeed(t *testing.T) {
	id := NewFeedID(testPub(1))

	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"ed25519", string(id), true},
		{"sha256 suffix", string(id[:len(id)-len(FeedSuffix)]) + ".sha256", true},
		{"missing prefix", string(id[1:]), false},
		{"wrong suffix", string(id[:len(id)-len(FeedSuffix)]) + ".curve", false},
		{"short key", "@abc=.ed25519", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFeed(tt.in))
		})
	}
}

func TestParseFeedID(t *testing.T) {
	id := NewFeedID(testPub(2))

	got, err := ParseFeedID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.True(t, got.Valid())

	_, err = ParseFeedID("@nope")
	assert.ErrorIs(t, err, ErrInvalidFeedID)
}

func TestFeedID_KeyAndPublicKey(t *testing.T) {
	pub := testPub(3)
	id := NewFeedID(pub)

	assert.Len(t, id.Key(), 44)
	assert.Equal(t, string(id), FeedPrefix+id.Key()+FeedSuffix)

	got, err := id.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, pub, got)

	assert.Empty(t, FeedID("@x").Key())

	sha := FeedID(FeedPrefix + id.Key() + ".sha256")
	_, err = sha.PublicKey()
	assert.ErrorIs(t, err, ErrInvalidFeedID)
}

func TestFeedID_ShortString(t *testing.T) {
	id := NewFeedID(testPub(4))
	assert.Equal(t, "@"+id.Key()[:8], id.ShortString())
	assert.Equal(t, "@ab", FeedID("@ab").ShortString())

	assert.True(t, FeedID("").IsEmpty())
	assert.False(t, id.IsEmpty())
}
