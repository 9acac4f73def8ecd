package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL 访问令牌默认有效期
const DefaultTokenTTL = 24 * time.Hour

// MinSecretLength HS256 密钥最短长度
const MinSecretLength = 32

// 令牌校验失败的具体原因，均可通过 errors.Is 归类为 errs.ErrUnauthenticated
var (
	ErrTokenExpired   = fmt.Errorf("%w: token expired", errs.ErrUnauthenticated)
	ErrTokenMalformed = fmt.Errorf("%w: token malformed", errs.ErrUnauthenticated)
	ErrTokenSignature = fmt.Errorf("%w: token signature invalid", errs.ErrUnauthenticated)
)

// Claims JWT 声明: sub 为用户 ID，role 为签发时的角色
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID 返回 sub
func (c *Claims) UserID() string {
	return c.Subject
}

// JWTService 签发和校验 HS256 访问令牌
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option JWTService 可选项
type Option func(*JWTService)

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) { s.now = now }
}

// WithTTL 设置令牌有效期
func WithTTL(ttl time.Duration) Option {
	return func(s *JWTService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewJWTService 创建 JWT 服务，密钥不足 32 字节时拒绝启动
func NewJWTService(secret string, opts ...Option) (*JWTService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d characters long, got %d", MinSecretLength, len(secret))
	}
	s := &JWTService{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL 当前令牌有效期
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// Issue 签发访问令牌，返回令牌和过期时间
func (s *JWTService) Issue(userID string, role models.Role) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("empty user id")
	}
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("invalid role %q", role)
	}

	// JWT 时间精度为秒，先截断避免 exp 与 iat 的差值漂移
	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify 校验签名和有效期，返回声明
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
