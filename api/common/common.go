package common

import (
	"errors"
	"net/http"

	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/gin-gonic/gin"
)

type Response struct {
	Status string      `json:"status"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data,omitempty"`
}

func Respond(c *gin.Context, httpStatus int, status string, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status: status,
		Msg:    message,
		Data:   data,
	})
}

// RespondSuccess sends a success response with data.
func RespondSuccess(c *gin.Context, data interface{}) {
	Respond(c, http.StatusOK, "success", "", data)
}

// RespondCreated sends a 201 response with data.
func RespondCreated(c *gin.Context, data interface{}) {
	Respond(c, http.StatusCreated, "success", "", data)
}

// RespondSuccessMessage sends a success response with message and data.
func RespondSuccessMessage(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusOK, "success", message, data)
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	Respond(c, httpStatus, "error", message, nil)
}

// RespondErrorAbort sends an error response and stops the handler chain.
func RespondErrorAbort(c *gin.Context, httpStatus int, message string) {
	RespondError(c, httpStatus, message)
	c.Abort()
}

// StatusFor 业务错误到 HTTP 状态码的唯一映射
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthenticated), errors.Is(err, errs.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrDuplicateIdentity):
		return http.StatusConflict
	case errors.Is(err, errs.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, errs.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor 返回对外的错误描述，只有校验错误带具体内容
func messageFor(err error) string {
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	for _, known := range []error{
		errs.ErrValidation,
		errs.ErrUnauthenticated,
		errs.ErrInvalidCredentials,
		errs.ErrForbidden,
		errs.ErrNotFound,
		errs.ErrDuplicateIdentity,
		errs.ErrGenerationFailed,
		errs.ErrUnavailable,
		errs.ErrIO,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal server error"
}

// RespondAppError 将业务错误转换为响应，内部错误只写日志
func RespondAppError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		utils.Log.WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Errorf("[API] Request failed: %v", err)
	}
	RespondError(c, status, messageFor(err))
}

// AbortWithAppError 同 RespondAppError，并中止后续处理
func AbortWithAppError(c *gin.Context, err error) {
	RespondAppError(c, err)
	c.Abort()
}
