package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code             string                      `json:"code"`
	Message          string                      `json:"message"`
	Retryable        bool                        `json:"retryable,omitempty"`
	AvailableActions []valueobject.ProjectStatus `json:"available_actions,omitempty"`
}

// MarshalJSON для CONFLICT выводит available_actions даже пустым списком.
func (e ErrorInfo) MarshalJSON() ([]byte, error) {
	type plain ErrorInfo
	if e.Code != string(apperror.ErrCodeConflict) {
		return json.Marshal(plain(e))
	}
	return json.Marshal(struct {
		plain
		AvailableActions []valueobject.ProjectStatus `json:"available_actions"`
	}{plain: plain(e), AvailableActions: e.AvailableActions})
}

const sideEffectMessage = "повторите попытку позже"

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func Error(c *gin.Context, err error) {
	ErrorWithActions(c, err, nil)
}

// ErrorWithActions добавляет к ответу 409 список допустимых переходов.
func ErrorWithActions(c *gin.Context, err error, actions []valueobject.ProjectStatus) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error: &ErrorInfo{
				Code:    string(apperror.ErrCodeInternal),
				Message: "внутренняя ошибка сервера",
			},
		})
		return
	}

	info := &ErrorInfo{
		Code:      string(appErr.Code),
		Message:   appErr.Message,
		Retryable: appErr.Retryable(),
	}
	switch appErr.Code {
	case apperror.ErrCodeSideEffectFailure:
		info.Message = sideEffectMessage
	case apperror.ErrCodeDatabaseError, apperror.ErrCodeInternal:
		info.Message = "внутренняя ошибка сервера"
	case apperror.ErrCodeConflict:
		if actions == nil {
			actions = []valueobject.ProjectStatus{}
		}
		info.AvailableActions = actions
	}

	c.JSON(appErr.HTTPStatus, Response{Success: false, Error: info})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeBadRequest),
			Message: message,
		},
	})
}

func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeUnauthorized),
			Message: message,
		},
	})
}
