package codes

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the length of generated verification codes. Alphanumeric
// at this length gives ~190 bits of entropy, and the value stays safe to
// embed in a URL query parameter.
const DefaultLength = 32

// Generate returns a cryptographically random alphanumeric code of n
// characters. Each character is drawn independently via crypto/rand so the
// value is unpredictable from timing or sequence.
func Generate(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}

// Hash returns the hex-encoded SHA-256 digest of token. Used wherever a
// token must be stored but never recoverable in plaintext.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Equal compares two strings in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
