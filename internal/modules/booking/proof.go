package booking

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// AllowedProofTypes are the sniffed content types accepted as transfer receipts.
var AllowedProofTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateProof checks that dataURL is a base64 image data URL of at most maxBytes decoded bytes.
func ValidateProof(dataURL string, maxBytes int) error {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return ErrInvalidProof
	}
	comma := strings.Index(dataURL, ",")
	if comma < 0 || !strings.HasSuffix(dataURL[:comma], ";base64") {
		return ErrInvalidProof
	}

	encoded := dataURL[comma+1:]
	if base64.StdEncoding.DecodedLen(len(encoded)) > maxBytes+2 {
		return ErrProofTooLarge
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if len(raw) == 0 {
		return ErrInvalidProof
	}
	if len(raw) > maxBytes {
		return ErrProofTooLarge
	}

	mimeType := strings.Split(http.DetectContentType(raw), ";")[0]
	if !AllowedProofTypes[mimeType] {
		return ErrInvalidProof
	}
	return nil
}
