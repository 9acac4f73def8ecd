package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/database/repo/accounts"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/anoixa/clone-gallery/utils"
)

// MinPasswordLength 密码最短长度
const MinPasswordLength = 8

// DefaultAdminUsername 首次启动创建的管理员用户名
const DefaultAdminUsername = "admin"

// PasswordHasher 密码摘要接口，由 utils/crypto 实现
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// RegisterInput 注册参数
type RegisterInput struct {
	Email    string
	Username string
	Name     string
	Password string
	Role     models.Role
}

// LoginResult 登录结果
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// CredentialService 账户凭据服务，密码摘要只在本服务内部流转
type CredentialService struct {
	accounts *accounts.Repository
	hasher   PasswordHasher
	tokens   *JWTService
	now      func() time.Time
}

// NewCredentialService 创建凭据服务
func NewCredentialService(repo *accounts.Repository, hasher PasswordHasher, tokens *JWTService) *CredentialService {
	return &CredentialService{
		accounts: repo,
		hasher:   hasher,
		tokens:   tokens,
		now:      time.Now,
	}
}

// Tokens 返回令牌服务
func (s *CredentialService) Tokens() *JWTService {
	return s.tokens
}

func validateRegister(in *RegisterInput) error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)

	if _, err := mail.ParseAddress(in.Email); err != nil || !strings.Contains(in.Email, "@") {
		return errs.Invalid("email", "invalid email address")
	}
	if n := utf8.RuneCountInString(in.Username); n < 3 || n > 50 {
		return errs.Invalid("username", "username must be 3-50 characters")
	}
	if strings.ContainsAny(in.Username, " @\t\n") {
		return errs.Invalid("username", "username must not contain spaces or @")
	}
	if in.Name == "" {
		in.Name = in.Username
	}
	if utf8.RuneCountInString(in.Name) > 100 {
		return errs.Invalid("name", "name must be at most 100 characters")
	}
	if err := ValidatePassword(in.Password); err != nil {
		return err
	}
	if in.Role == "" {
		in.Role = models.RoleVisitor
	}
	if !in.Role.Valid() {
		return errs.Invalid("role", "unknown role")
	}
	return nil
}

// ValidatePassword 校验密码强度
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errs.Invalid("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// Register 创建账户，邮箱或用户名重复时返回 errs.ErrDuplicateIdentity
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateRegister(&in); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		Name:         in.Name,
		PasswordHash: digest,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, user); err != nil {
		return nil, err
	}

	utils.Log.WithField("user_id", user.ID).
		Infof("[Auth] Registered user %s (%s)", utils.SanitizeLogUsername(user.Username), user.Role)
	return user, nil
}

// Login 通过邮箱或用户名登录
// 用户不存在、已停用和密码错误统一返回 errs.ErrInvalidCredentials
func (s *CredentialService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	user, err := s.FindByLogin(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// FindByLogin 校验凭据，成功时更新最后登录时间
func (s *CredentialService) FindByLogin(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := s.accounts.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// 空摘要同样走一次哈希，避免通过响应时间探测用户是否存在
			s.hasher.Verify(password, "")
			return nil, errs.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		utils.Log.Warnf("[Auth] Failed login for %s", utils.SanitizeLogUsername(identifier))
		return nil, errs.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.accounts.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &now
	return user, nil
}

// FindByID 通过 ID 获取用户
func (s *CredentialService) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.accounts.GetByID(ctx, id)
}

// Authenticate 校验令牌并重新加载用户，已删除或停用的用户视为未认证
func (s *CredentialService) Authenticate(ctx context.Context, token string) (*models.User, *Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.accounts.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, nil, errs.ErrUnauthenticated
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, errs.ErrUnauthenticated
	}
	return user, claims, nil
}

// ResetPassword 重置密码，identifier 可以是邮箱或用户名
func (s *CredentialService) ResetPassword(ctx context.Context, identifier, newPassword string) (*models.User, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.accounts.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.accounts.UpdatePassword(ctx, user.ID, digest); err != nil {
		return nil, err
	}

	utils.Log.WithField("user_id", user.ID).Info("[Auth] Password reset")
	return user, nil
}

// SetActive 启用 / 停用账户
func (s *CredentialService) SetActive(ctx context.Context, id string, active bool) (*models.User, error) {
	if err := s.accounts.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.accounts.GetByID(ctx, id)
}

// ListUsers 分页列出用户
func (s *CredentialService) ListUsers(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	return s.accounts.List(ctx, page, limit)
}

// EnsureDefaultAdmin 不存在管理员时创建默认管理员
// 返回生成的随机密码，仅在创建时非空
func (s *CredentialService) EnsureDefaultAdmin(ctx context.Context) (string, error) {
	count, err := s.accounts.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return "", nil
	}

	password, err := utils.GenerateRandomToken(12)
	if err != nil {
		return "", fmt.Errorf("failed to generate admin password: %w", err)
	}

	_, err = s.Register(ctx, RegisterInput{
		Email:    "admin@clonegallery.local",
		Username: DefaultAdminUsername,
		Name:     "Administrator",
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		// 并发启动时另一实例可能已经创建
		if errors.Is(err, errs.ErrDuplicateIdentity) {
			return "", nil
		}
		return "", err
	}
	return password, nil
}
