package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GenerateCertificateID returns a random 20-hex-char certificate identifier.
func GenerateCertificateID() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateTestID returns a test-certificate identifier. The TEST- prefix
// marks the record for expiry cleanup and for the verification page banner.
func GenerateTestID() string {
	return fmt.Sprintf("TEST-%s", strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36)))
}

// IsTestID reports whether an identifier belongs to a test certificate.
func IsTestID(id string) bool {
	return strings.HasPrefix(id, "TEST-")
}
