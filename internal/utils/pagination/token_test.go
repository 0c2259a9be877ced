package pagination

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRevisionToken(t *testing.T) {
	token := EncodeRevisionToken("6f1c1a4e-lineage", 42)
	assert.NotEmpty(t, token, "Token should not be empty")

	version, err := DecodeRevisionToken(token, "6f1c1a4e-lineage")
	require.NoError(t, err)
	assert.Equal(t, 42, version)
}

func TestDecodeRevisionTokenError(t *testing.T) {
	// Invalid base64
	_, err := DecodeRevisionToken("this is not base64!", "lineage")
	assert.ErrorContains(t, err, "base64 decode")

	// Missing separator
	_, err = DecodeRevisionToken(base64.URLEncoding.EncodeToString([]byte("lineage")), "lineage")
	assert.ErrorContains(t, err, "split")

	// Version is not a number
	_, err = DecodeRevisionToken(EncodeMultiFieldToken("lineage", "abc"), "lineage")
	assert.ErrorContains(t, err, "version parse")

	// Version must be positive
	_, err = DecodeRevisionToken(EncodeRevisionToken("lineage", 0), "lineage")
	assert.ErrorContains(t, err, "version parse")

	// Token issued for a different lineage
	_, err = DecodeRevisionToken(EncodeRevisionToken("other", 3), "lineage")
	assert.ErrorContains(t, err, "another lineage")
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-5))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, MaxLimit, NormalizeLimit(1000))
}

func TestMultiFieldToken(t *testing.T) {
	token := EncodeMultiFieldToken("a", "b", "c")
	parts, err := DecodeMultiFieldToken(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, parts)
}
