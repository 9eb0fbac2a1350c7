package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleServiceErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		code int
		kind string
	}{
		{ErrInvalidPage, http.StatusBadRequest, "validation"},
		{fmt.Errorf("%w: isbn 123", ErrInsufficientStock), http.StatusUnprocessableEntity, "business_rule"},
		{ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{ErrForbidden, http.StatusForbidden, "forbidden"},
		{ErrRouteNotFound, http.StatusNotFound, "not_found"},
		{ErrStationInUse, http.StatusConflict, "conflict"},
		{ErrDatabaseError, http.StatusInternalServerError, "internal"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleServiceError(c, tt.err)

			require.Equal(t, tt.code, w.Code)
			var body APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.kind, body.Kind)
		})
	}
}

func TestHandleServiceErrorHidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("trace_id", "trace-1")

	HandleServiceError(c, errors.New("pq: relation users does not exist"))

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Message)
	assert.Equal(t, "trace-1", body.TraceID)
}

func TestRespondWithoutTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	assert.NotPanics(t, func() { RespondSuccess(c, nil, "ok") })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", fmt.Errorf("%w: qr 42", ErrQRCodeAlreadyUsed))
	assert.Equal(t, KindBusinessRule, KindOf(err))
	assert.True(t, errors.Is(err, ErrQRCodeAlreadyUsed))
	assert.False(t, errors.Is(err, ErrQRCodeExpired))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestJWTManagerRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	userID := uuid.New()

	token, expires, err := m.CreateToken(userID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expires, 5*time.Second)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTManagerRejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.CreateToken(uuid.New())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePasswords(hash, "correct horse"))
	assert.Error(t, ComparePasswords(hash, "wrong"))
}

func TestGenerateDigits(t *testing.T) {
	s, err := GenerateDigits(6)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), s)

	_, err = GenerateDigits(0)
	assert.Error(t, err)
}

func TestNormalizeClockTime(t *testing.T) {
	got, err := NormalizeClockTime("7:05")
	require.NoError(t, err)
	assert.Equal(t, "07:05", got)

	got, err = NormalizeClockTime("18:30")
	require.NoError(t, err)
	assert.Equal(t, "18:30", got)

	_, err = NormalizeClockTime("25:00")
	assert.Error(t, err)
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	in := time.Date(2025, 3, 2, 1, 30, 0, 0, loc) // 2025-03-01 18:30 UTC
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), DateOf(in))
}

type validated struct {
	Name  string `binding:"required"`
	Count int    `binding:"gte=1"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(validated{Name: "a", Count: 1}))

	err := ValidateStruct(validated{})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "Name")
	assert.Contains(t, err.Error(), "Count")
}
