package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

func render(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperror.New(apperror.ErrCodeNotFound, "нет"), http.StatusNotFound, "NOT_FOUND"},
		{apperror.New(apperror.ErrCodeForbidden, "нельзя"), http.StatusForbidden, "FORBIDDEN"},
		{apperror.New(apperror.ErrCodePreconditionFailed, "условие"), http.StatusPreconditionFailed, "PRECONDITION_FAILED"},
		{apperror.New(apperror.ErrCodeValidation, "поле"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{apperror.New(apperror.ErrCodeSideEffectFailure, "шлюз"), http.StatusServiceUnavailable, "SIDE_EFFECT_FAILURE"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		w, resp := render(t, func(c *gin.Context) { Error(c, tc.err) })
		assert.Equal(t, tc.status, w.Code)
		assert.False(t, resp.Success)
		assert.Equal(t, tc.code, resp.Error.Code)
	}
}

func TestError_SideEffectHidesCause(t *testing.T) {
	_, resp := render(t, func(c *gin.Context) {
		Error(c, apperror.Wrap(errors.New("dial tcp"), apperror.ErrCodeSideEffectFailure, "шлюз недоступен"))
	})
	assert.Equal(t, "повторите попытку позже", resp.Error.Message)
	assert.True(t, resp.Error.Retryable)
}

func TestErrorWithActions_Conflict(t *testing.T) {
	actions := []valueobject.ProjectStatus{valueobject.ProjectStatusInProgress, valueobject.ProjectStatusCancelled}
	w, resp := render(t, func(c *gin.Context) {
		ErrorWithActions(c, apperror.ErrStatusConflict, actions)
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, actions, resp.Error.AvailableActions)
	assert.True(t, resp.Error.Retryable)
}

func TestErrorWithActions_ConflictWithoutActions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	ErrorWithActions(c, apperror.ErrStatusConflict, nil)

	assert.Contains(t, w.Body.String(), `"available_actions":[]`)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Error(c, apperror.New(apperror.ErrCodeNotFound, "нет"))
	assert.NotContains(t, w.Body.String(), "available_actions")
}
