// File: internal/platform/crypto/generator.go
package crypto

import (
	"crypto/rand"
	"math/big"
)

const shortIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ShortID returns n random characters from [a-z0-9], safe to embed in
// Kubernetes object names.
func ShortID(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(shortIDAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = shortIDAlphabet[idx.Int64()]
	}
	return string(out), nil
}
