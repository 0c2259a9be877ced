package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// EncodeRevisionToken creates a base64 encoded token pointing below a revision of a lineage.
// The next page starts at the revision with the highest version lower than version.
func EncodeRevisionToken(lineageID string, version int) string {
	return EncodeMultiFieldToken(lineageID, strconv.Itoa(version))
}

// DecodeRevisionToken parses a token produced by EncodeRevisionToken. The token must belong to
// lineageID so a cursor cannot be replayed against another lineage.
func DecodeRevisionToken(token, lineageID string) (int, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return 0, err
	}
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid pagination token format (split)")
	}
	if parts[0] != lineageID {
		return 0, fmt.Errorf("pagination token belongs to another lineage")
	}
	version, err := strconv.Atoi(parts[1])
	if err != nil || version < 1 {
		return 0, fmt.Errorf("invalid pagination token format (version parse)")
	}
	return version, nil
}

// NormalizeLimit clamps a requested page size, substituting DefaultLimit when none was given.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// EncodeMultiFieldToken creates a token with any number of string fields
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.URLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	tokenStr := string(decodedBytes)
	parts := strings.Split(tokenStr, "|")
	return parts, nil
}
