package cryptopackage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHash_Format(t *testing.T) {
	h := NewHasher(testParams)

	digest, err := h.Hash("mysecretpassword123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$argon2id$v="))
	assert.Contains(t, digest, "$m=1024,t=1,p=1$")
	assert.NotContains(t, digest, "mysecretpassword123")
}

// 相同密码应该产生不同哈希（盐值不同）
func TestHash_SaltedPerCall(t *testing.T) {
	h := NewHasher(testParams)

	a, err := h.Hash("samepassword123")
	require.NoError(t, err)
	b, err := h.Hash("samepassword123")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_RoundTrip(t *testing.T) {
	h := NewHasher(testParams)
	passwords := []string{"password1", "correct horse battery staple", "密码测试12345", "  spaces  ", "x"}

	for _, p := range passwords {
		digest, err := h.Hash(p)
		require.NoError(t, err)
		assert.True(t, h.Verify(p, digest), "round trip failed for %q", p)

		for _, q := range passwords {
			if q != p {
				assert.False(t, h.Verify(q, digest), "%q must not verify against hash of %q", q, p)
			}
		}
	}
}

func TestVerify_Bcrypt(t *testing.T) {
	h := NewHasher(testParams)

	digest, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, h.Verify("admin123", string(digest)))
	assert.False(t, h.Verify("admin124", string(digest)))
}

// 格式错误的摘要一律返回 false，不会 panic
func TestVerify_MalformedDigest(t *testing.T) {
	h := NewHasher(testParams)
	malformed := []string{
		"",
		"plaintext",
		"$argon2id$",
		"$argon2id$v=19$m=1024,t=1,p=1$salt",
		"$argon2id$v=abc$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
		"$2b$10$tooshort",
	}

	for _, d := range malformed {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("password", d), "digest %q", d)
		})
	}
}
