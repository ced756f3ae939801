package encoder

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Image lowering helpers. Most backends embed images as a data URI or a
// base64 source object; Bedrock Converse wants raw bytes plus a short format
// name.

// DataURI builds a data URI from a media type and base64 payload.
func DataURI(mediaType, data string) string {
	return "data:" + NormalizeMediaType(mediaType) + ";base64," + data
}

// DecodeImage decodes a base64 payload into raw bytes for backends whose wire
// format demands bytes rather than a data URI.
func DecodeImage(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return raw, nil
}

// ImageFormat maps a media type to the bare format name byte-oriented
// backends use ("png", "jpeg", "gif", "webp"). Unknown types default to png.
func ImageFormat(mediaType string) string {
	switch NormalizeMediaType(mediaType) {
	case "image/jpeg":
		return "jpeg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

// NormalizeMediaType lowercases the main type, drops parameters like charset,
// and folds image/jpg onto image/jpeg.
func NormalizeMediaType(mediaType string) string {
	mainType := strings.Split(mediaType, ";")[0]
	mainType = strings.TrimSpace(strings.ToLower(mainType))
	if mainType == "image/jpg" {
		return "image/jpeg"
	}
	if mainType == "" {
		return "image/png"
	}
	return mainType
}

// IsSupportedMediaType reports whether the media type is one the backends
// accept for embedded images.
func IsSupportedMediaType(mediaType string) bool {
	switch NormalizeMediaType(mediaType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}
