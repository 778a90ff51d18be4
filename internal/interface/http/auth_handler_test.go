package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/communify/communify-backend/internal/application"
	"github.com/communify/communify-backend/internal/infrastructure/memory"
	"github.com/communify/communify-backend/internal/interface/middleware"
	"github.com/communify/communify-backend/pkg/helpers"
	"github.com/communify/communify-backend/pkg/validation"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var initOnce sync.Once

type apiFixture struct {
	engine *gin.Engine
	svc    *application.Service
	repo   *memory.UserRepository
	tokens *helpers.TokenService
	logs   *logrustest.Hook
}

// newAPIFixture assembles the full HTTP surface against an in-memory
// repository, with the same route layout and guard chains as the
// production modules.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	initOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		validation.Init()
	})

	repo := memory.NewUserRepository()
	tokens, err := helpers.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	hasher := helpers.NewPasswordHasher(bcrypt.MinCost)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logs := logrustest.NewLocal(logger)

	svc := application.NewService(repo, tokens, hasher, logger, nil, "users", nil, false)

	authHandler := NewAuthHandler(svc, logger)
	userHandler := NewUserHandler(svc, logger)
	adminHandler := NewAdminHandler(svc, logger)

	r := gin.New()
	r.Use(middleware.RealIP())
	r.POST("/auth/token", authHandler.Token)
	r.POST("/auth/register", authHandler.Register)

	authed := r.Group("/auth", middleware.Authenticated(tokens, repo), middleware.ActiveOnly())
	authed.POST("/verify-parental-passcode", authHandler.VerifyParentalPasscode)
	authed.POST("/set-parental-passcode", authHandler.SetParentalPasscode)
	authed.POST("/remove-parental-passcode", authHandler.RemoveParentalPasscode)

	users := r.Group("/users", middleware.Authenticated(tokens, repo), middleware.ActiveOnly())
	users.GET("/me", userHandler.Me)

	admin := r.Group("/admin", middleware.Authenticated(tokens, repo), middleware.ActiveOnly(), middleware.AdminOnly())
	admin.POST("/users", adminHandler.CreateAdmin)
	admin.GET("/users", adminHandler.ListUsers)
	admin.PATCH("/users/:id/status", adminHandler.SetUserStatus)

	return &apiFixture{engine: r, svc: svc, repo: repo, tokens: tokens, logs: logs}
}

func (f *apiFixture) do(method, path, token string, body string, contentType string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) postJSON(path, token string, payload any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(payload)
	return f.do(http.MethodPost, path, token, string(raw), "application/json")
}

func (f *apiFixture) login(t *testing.T, email, password string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	w := f.do(http.MethodPost, "/auth/token", "", form.Encode(), "application/x-www-form-urlencoded")
	if w.Code != http.StatusOK {
		return w, ""
	}
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "bearer", body.TokenType)
	require.NotEmpty(t, body.AccessToken)
	return w, body.AccessToken
}

func (f *apiFixture) register(t *testing.T, email, password, name string) *httptest.ResponseRecorder {
	t.Helper()
	return f.postJSON("/auth/register", "", gin.H{"email": email, "password": password, "name": name})
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAPIFixture(t)

	w := f.register(t, "alice@example.com", "s3cret-pass", "Alice")
	require.Equal(t, http.StatusCreated, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"alice@example.com"`)
	assert.Contains(t, body, `"role":"member"`)
	assert.Contains(t, body, `"is_active":true`)
	assert.NotContains(t, body, "password", "hashes must never appear in responses")

	w, token := f.login(t, "alice@example.com", "s3cret-pass")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/users/me", token, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alice@example.com"`)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAPIFixture(t)

	w := f.register(t, "bob@example.com", "s3cret-pass", "Bob")
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.register(t, "bob@example.com", "another-pass", "Bobby")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	f := newAPIFixture(t)

	w := f.register(t, "carl@example.com", "short", "Carl")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "dora@example.com", "s3cret-pass", "Dora")

	w, _ := f.login(t, "dora@example.com", "wrong-pass")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	// Unknown email must be indistinguishable from a wrong password.
	w2, _ := f.login(t, "nobody@example.com", "wrong-pass")
	assert.Equal(t, w.Code, w2.Code)
	var a, b map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &b))
	assert.Equal(t, a["message"], b["message"])
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newAPIFixture(t)
	w := f.register(t, "eve@example.com", "s3cret-pass", "Eve")
	require.Equal(t, http.StatusCreated, w.Code)

	u, err := f.repo.GetByEmail(context.Background(), "eve@example.com")
	require.NoError(t, err)
	_, err = f.svc.SetUserActive(context.Background(), u.ID, false)
	require.NoError(t, err)

	w2, _ := f.login(t, "eve@example.com", "s3cret-pass")
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestDeactivationLocksOutLiveToken(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "finn@example.com", "s3cret-pass", "Finn")
	_, token := f.login(t, "finn@example.com", "s3cret-pass")

	w := f.do(http.MethodGet, "/users/me", token, "", "")
	require.Equal(t, http.StatusOK, w.Code)

	u, err := f.repo.GetByEmail(context.Background(), "finn@example.com")
	require.NoError(t, err)
	_, err = f.svc.SetUserActive(context.Background(), u.ID, false)
	require.NoError(t, err)

	// The token is still cryptographically valid, but the active gate
	// must reject it on the next request.
	w = f.do(http.MethodGet, "/users/me", token, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "gail@example.com", "s3cret-pass", "Gail")

	u, err := f.repo.GetByEmail(context.Background(), "gail@example.com")
	require.NoError(t, err)
	expired, _, err := f.tokens.IssueWithTTL(u.ID, -time.Minute)
	require.NoError(t, err)

	w := f.do(http.MethodGet, "/users/me", expired, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestMissingAndMalformedAuthorization(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/users/me", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "hank@example.com", "s3cret-pass", "Hank")
	_, memberToken := f.login(t, "hank@example.com", "s3cret-pass")

	w := f.do(http.MethodGet, "/admin/users", memberToken, "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, err := f.svc.CreateAdmin(context.Background(), "root@example.com", "s3cret-pass", "Root")
	require.NoError(t, err)
	_, adminToken := f.login(t, "root@example.com", "s3cret-pass")

	w = f.do(http.MethodGet, "/admin/users", adminToken, "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Admins can deactivate an account via the API.
	u, err := f.repo.GetByEmail(context.Background(), "hank@example.com")
	require.NoError(t, err)
	raw, _ := json.Marshal(gin.H{"is_active": false})
	w = f.do(http.MethodPatch, "/admin/users/"+u.ID+"/status", adminToken, string(raw), "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	got, err := f.repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "inactive", string(got.Status))
}

func TestParentalPasscodeFlow(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "iris@example.com", "s3cret-pass", "Iris")
	_, token := f.login(t, "iris@example.com", "s3cret-pass")

	// Verify with none set reports a mismatch, not an error.
	w := f.postJSON("/auth/verify-parental-passcode", token, gin.H{"passcode": "1234"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	// First set needs no proof of a current passcode.
	w = f.postJSON("/auth/set-parental-passcode", token, gin.H{"new_passcode": "1234"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.postJSON("/auth/verify-parental-passcode", token, gin.H{"passcode": "1234"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)

	// Changing it without the current passcode is refused.
	w = f.postJSON("/auth/set-parental-passcode", token, gin.H{"new_passcode": "5678"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.postJSON("/auth/set-parental-passcode", token, gin.H{"current_passcode": "1234", "new_passcode": "5678"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.postJSON("/auth/verify-parental-passcode", token, gin.H{"passcode": "1234"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	// Removal also requires the current passcode.
	w = f.postJSON("/auth/remove-parental-passcode", token, gin.H{"current_passcode": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.postJSON("/auth/remove-parental-passcode", token, gin.H{"current_passcode": "5678"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.postJSON("/auth/verify-parental-passcode", token, gin.H{"passcode": "5678"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestPasscodeEndpointsRequireAuth(t *testing.T) {
	f := newAPIFixture(t)

	w := f.postJSON("/auth/set-parental-passcode", "", gin.H{"new_passcode": "1234"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	f := newAPIFixture(t)

	// bcrypt only reads the first 72 bytes; longer secrets must be a
	// validation failure, not an internal error.
	long := strings.Repeat("a", 100)
	w := f.register(t, "lena@example.com", long, "Lena")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "password")
}

func TestSetPasscodeRejectsOverlongPasscode(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "mona@example.com", "s3cret-pass", "Mona")
	_, token := f.login(t, "mona@example.com", "s3cret-pass")

	w := f.postJSON("/auth/set-parental-passcode", token, gin.H{"new_passcode": strings.Repeat("7", 100)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFailedLoginLoggedWithClientIP(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "nora@example.com", "s3cret-pass", "Nora")
	f.logs.Reset()

	form := url.Values{"username": {"nora@example.com"}, "password": {"wrong-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var found bool
	for _, e := range f.logs.AllEntries() {
		if e.Message == "failed login attempt" {
			found = true
			assert.Equal(t, "203.0.113.9", e.Data["ip"])
			assert.Equal(t, "nora@example.com", e.Data["email"])
		}
	}
	assert.True(t, found, "failed login should be logged with the client address")
}

func TestMeWithoutGuardDenied(t *testing.T) {
	f := newAPIFixture(t)

	// A route wired without the guard chain has no account in context;
	// the handler must deny rather than fall back to a lookup.
	r := gin.New()
	h := NewUserHandler(f.svc, logrus.New())
	r.GET("/me", h.Me)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}
