package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestError_AppErrorKeepsStatusAndFields(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		Error(c, apperror.Field("email", "email уже зарегистрирован"))
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, false, body["success"])
	errs := body["errors"].(map[string]any)
	assert.Equal(t, []any{"email уже зарегистрирован"}, errs["email"])
}

func TestError_UnknownErrorIsMasked(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		Error(c, errors.New("pq: relation \"users\" does not exist"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, internalMessage, body["message"])
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestPaginated_Meta(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		Paginated(c, []int{1, 2}, 41, 20, 2)
	})

	assert.Equal(t, http.StatusOK, w.Code)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(41), meta["total"])
	assert.Equal(t, float64(3), meta["last_page"])
	assert.Equal(t, float64(2), meta["current_page"])
}

func TestNewMeta_EmptyList(t *testing.T) {
	assert.Equal(t, 1, NewMeta(0, 20, 1).LastPage)
}

func TestClientErrorLevel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want logrus.Level
	}{
		{"unauthorized", apperror.ErrUnauthorized, logrus.WarnLevel},
		{"wrapped token error", apperror.Wrap(errors.New("token expired"), apperror.ErrCodeUnauthorized, "токен истёк"), logrus.WarnLevel},
		{"forbidden", apperror.Forbidden("нет доступа"), logrus.WarnLevel},
		{"not found", apperror.NotFound("нет"), logrus.DebugLevel},
		{"validation", apperror.Field("email", "обязателен"), logrus.DebugLevel},
		{"bad request", apperror.BadRequest("плохо"), logrus.DebugLevel},
		{"conflict", apperror.New(apperror.ErrCodeConflict, "уже есть"), logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clientErrorLevel(tt.err))
		})
	}
}

func TestError_WrappedCauseHiddenFromClient(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		Error(c, apperror.Wrap(errors.New("signature is invalid"), apperror.ErrCodeUnauthorized, "токен недействителен"))
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "токен недействителен", body["message"])
	assert.NotContains(t, w.Body.String(), "signature is invalid")
}
