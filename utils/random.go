package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateCode returns n random bytes as lower-case hex.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return hex.EncodeToString(byt), nil
}
