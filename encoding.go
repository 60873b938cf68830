package ninekw

import (
	"bytes"
	"encoding/base64"
)

// encodeImage returns the base64 form of img. Input that already is valid
// base64 (decodes and re-encodes to itself) is passed through unchanged.
func encodeImage(img []byte) string {
	if isBase64(img) {
		return string(img)
	}
	return base64.StdEncoding.EncodeToString(img)
}

func isBase64(b []byte) bool {
	decoded, err := base64.StdEncoding.DecodeString(string(b))
	if err != nil {
		return false
	}
	return bytes.Equal([]byte(base64.StdEncoding.EncodeToString(decoded)), b)
}
