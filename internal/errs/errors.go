package errs

import "errors"

// 业务错误分类，边界层统一通过 errors.Is 映射为 HTTP 状态码
var (
	ErrDuplicateIdentity  = errors.New("email or username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access denied")
	ErrNotFound           = errors.New("not found")
	ErrIO                 = errors.New("storage operation failed")
	ErrValidation         = errors.New("validation failed")
	ErrGenerationFailed   = errors.New("image generation failed")
	ErrUnavailable        = errors.New("service unavailable")
)

// ValidationError 携带可以返回给调用方的校验信息
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid 创建校验错误
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
