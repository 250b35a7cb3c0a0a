package auth

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	minUsernameLength = 3
	// leaves room for a numeric suffix within the 30 character column
	maxUsernameBase = 24
)

const letters = "abcdefghijklmnopqrstuvwxyz"

// BuildSafeUsername derives a lowercase ASCII username from a display name.
// Accents are stripped ("José" becomes "jose"); anything else outside a-z and
// 0-9 is dropped. Results shorter than three characters are replaced by
// "user" plus four random letters.
func BuildSafeUsername(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	out := b.String()
	if len(out) > maxUsernameBase {
		out = out[:maxUsernameBase]
	}
	if len(out) < minUsernameLength {
		return "user" + randomLetters(4)
	}
	return out
}

func randomLetters(n int) string {
	max := big.NewInt(int64(len(letters)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			buf[i] = letters[i%len(letters)]
			continue
		}
		buf[i] = letters[idx.Int64()]
	}
	return string(buf)
}
