package cryptopackage

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Params Argon2id 成本参数
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams 交互式登录场景的推荐参数（64MB，2 次迭代）
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher 密码哈希器，摘要中自带算法参数和盐值
type Hasher struct {
	params Params
}

// NewHasher 创建哈希器
func NewHasher(params Params) *Hasher {
	return &Hasher{params: params}
}

// Hash 使用 Argon2id 哈希密码
// 格式: $argon2id$v={version}$m={memory},t={iterations},p={parallelism}${salt}${hash}
func (h *Hasher) Hash(password string) (string, error) {
	p := h.params
	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify 校验密码，摘要格式错误时返回 false
// 兼容 bcrypt 摘要（$2a$ / $2b$ / $2y$）
func (h *Hasher) Verify(password, digest string) bool {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		ok, err := compareArgon2id(password, digest)
		return err == nil && ok
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	default:
		// 未知格式仍做一次等成本计算，避免时间差泄露
		_, _ = h.Hash(password)
		return false
	}
}

func compareArgon2id(password, encodedHash string) (bool, error) {
	// "", "argon2id", "v=...", "m=...,t=...,p=...", "salt", "hash"
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false, fmt.Errorf("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("invalid argon2id version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("invalid argon2id parameters: %w", err)
	}
	if memory == 0 || iterations == 0 || parallelism == 0 {
		return false, fmt.Errorf("invalid argon2id parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false, fmt.Errorf("failed to decode hash")
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(expected, computed) == 1, nil
}
