package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateRandomToken 生成 n 字节随机数的 URL 安全编码（无填充，长度 ceil(4n/3)）
// 用于默认管理员初始密码
func GenerateRandomToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid token length: %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
