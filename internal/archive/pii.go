package archive

import (
	"crypto/sha256"
	"fmt"
)

// HashMobile returns the hex-encoded SHA-256 hash of a mobile number.
func HashMobile(mobile string) string {
	if mobile == "" {
		return ""
	}
	h := sha256.Sum256([]byte(mobile))
	return fmt.Sprintf("%x", h)
}
