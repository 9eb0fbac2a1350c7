package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allinbee/internal/auth"
	"allinbee/pkg/utils"
)

type stubResolver struct {
	identities map[uuid.UUID]auth.Identity
}

func (s stubResolver) ResolveIdentity(_ context.Context, userID uuid.UUID) (*auth.Identity, error) {
	identity, ok := s.identities[userID]
	if !ok {
		return nil, utils.ErrAccountNotFound
	}
	return &identity, nil
}

func newTestRouter(tokens *utils.JWTManager, resolver IdentityResolver, min auth.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.GET("/protected", JWTAuthMiddleware(tokens, resolver), RequireRole(min), func(c *gin.Context) {
		identity, _ := IdentityFrom(c)
		utils.RespondSuccess(c, gin.H{"user_id": identity.UserID.String()}, "ok")
	})
	return r
}

func doGet(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	tokens := utils.NewJWTManager("test-secret", time.Hour)
	student := uuid.New()
	staff := uuid.New()
	resolver := stubResolver{identities: map[uuid.UUID]auth.Identity{
		student: {UserID: student, IsStudent: true},
		staff:   {UserID: staff, IsStaff: true},
	}}

	t.Run("missing header", func(t *testing.T) {
		w := doGet(newTestRouter(tokens, resolver, auth.RoleAuthenticated), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doGet(newTestRouter(tokens, resolver, auth.RoleAuthenticated), "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := utils.NewJWTManager("other-secret", time.Hour)
		token, _, err := other.CreateToken(student)
		require.NoError(t, err)
		w := doGet(newTestRouter(tokens, resolver, auth.RoleAuthenticated), token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deleted user", func(t *testing.T) {
		token, _, err := tokens.CreateToken(uuid.New())
		require.NoError(t, err)
		w := doGet(newTestRouter(tokens, resolver, auth.RoleAuthenticated), token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("authenticated student", func(t *testing.T) {
		token, _, err := tokens.CreateToken(student)
		require.NoError(t, err)
		w := doGet(newTestRouter(tokens, resolver, auth.RoleAuthenticated), token)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			TraceID string            `json:"trace_id"`
			Data    map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, student.String(), body.Data["user_id"])
		assert.NotEmpty(t, body.TraceID)
	})

	t.Run("student below staff gate", func(t *testing.T) {
		token, _, err := tokens.CreateToken(student)
		require.NoError(t, err)
		w := doGet(newTestRouter(tokens, resolver, auth.RoleStaff), token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff below admin gate", func(t *testing.T) {
		token, _, err := tokens.CreateToken(staff)
		require.NoError(t, err)
		w := doGet(newTestRouter(tokens, resolver, auth.RoleAdmin), token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff passes staff gate", func(t *testing.T) {
		token, _, err := tokens.CreateToken(staff)
		require.NoError(t, err)
		w := doGet(newTestRouter(tokens, resolver, auth.RoleStaff), token)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", RequireRole(auth.RoleAnonymous), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/closed", RequireRole(auth.RoleAuthenticated), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/closed", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTraceIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("trace_id")) })

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, incoming)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(TraceIDHeader))
	assert.Equal(t, incoming, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	_, err := uuid.Parse(w.Header().Get(TraceIDHeader))
	assert.NoError(t, err)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example.edu"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.edu")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.edu", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
