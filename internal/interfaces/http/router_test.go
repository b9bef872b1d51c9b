package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/descope/virtualwebauthn"
	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blink-inc/blink/internal/infrastructure/cache"
	"github.com/blink-inc/blink/internal/infrastructure/config"
	"github.com/blink-inc/blink/internal/infrastructure/database"
	sharedConfig "github.com/blink-inc/blink/internal/shared/config"
	"github.com/blink-inc/blink/internal/shared/constants"
	"github.com/blink-inc/blink/internal/shared/logger"
)

var testRP = virtualwebauthn.RelyingParty{
	Name:   "Blink",
	ID:     "blink.example",
	Origin: "https://blink.example",
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	container *Container
	handler   http.Handler
}

type testDeps struct {
	cfg      *config.Config
	db       *gorm.DB
	redis    *redis.Client
	metadata *redis.Client
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	metadata := redis.NewClient(&redis.Options{Addr: mr.Addr(), DB: 1})
	t.Cleanup(func() {
		_ = client.Close()
		_ = metadata.Close()
	})

	gdb, err := database.Open(&sharedConfig.DatabaseConfig{Driver: "sqlite", Database: ":memory:"}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gdb))
	t.Cleanup(func() { _ = database.Close(gdb) })

	cfg := &config.Config{
		Server: sharedConfig.ServerConfig{Mode: constants.EnvTest},
		Auth: sharedConfig.AuthConfig{
			Password: sharedConfig.PasswordConfig{BcryptCost: 4},
			JWT: sharedConfig.JWTConfig{
				Secret:   "router-test-secret",
				Issuer:   "blink",
				ExpDays:  35,
				Audience: []string{"core:user", "core:admin"},
			},
		},
		Cookie: sharedConfig.CookieConfig{Path: "/", SameSite: "Strict"},
		WebAuthn: sharedConfig.WebAuthnConfig{
			RPID:                testRP.ID,
			RPName:              testRP.Name,
			RPOrigins:           []string{testRP.Origin},
			ChallengeTTLSeconds: 300,
		},
		RateLimit: sharedConfig.RateLimitConfig{Enabled: true, Limit: 100, WindowSeconds: 60},
	}
	return &testDeps{cfg: cfg, db: gdb, redis: client, metadata: metadata}
}

func (d *testDeps) container() (*Container, error) {
	return NewContainer(d.cfg, d.db, d.redis, d.metadata, logger.NewNop())
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	container, err := newTestDeps(t).container()
	require.NoError(t, err)

	router := NewRouter(container)
	router.SetupRoutes()
	return &testServer{container: container, handler: router.Handler()}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte, token string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", constants.ContentTypeJSON)
	if token != "" {
		req.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), constants.ContentTypeJSON) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func cookieNamed(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

// publicKeyOptions extracts the publicKey member the browser would hand to the authenticator.
func publicKeyOptions(t *testing.T, resp apiResponse) string {
	t.Helper()
	var data struct {
		Option struct {
			PublicKey json.RawMessage `json:"publicKey"`
		} `json:"option"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Option.PublicKey)
	return string(data.Option.PublicKey)
}

func (s *testServer) passwordSession(t *testing.T) (token, subject string) {
	t.Helper()
	w, _ := s.do(t, http.MethodPost, "/api/auth/password/register",
		[]byte(`{"username":"alice","email":"alice@example.com","password":"correct horse battery"}`), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, resp := s.do(t, http.MethodPost, "/api/auth/password/login",
		[]byte(`{"email":"alice@example.com","password":"correct horse battery"}`), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session struct {
		Token   string `json:"token"`
		Subject string `json:"subject"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token, session.Subject
}

func TestRouter_PasskeyLifecycle(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	token, subject := s.passwordSession(t)
	cred := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)

	// Registration requires a session.
	w, _ := s.do(t, http.MethodGet, "/api/auth/passkey/register-option", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp := s.do(t, http.MethodGet, "/api/auth/passkey/register-option", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	regCookie := cookieNamed(t, w, constants.CookieRegistrationCeremony)

	attOptions, err := virtualwebauthn.ParseAttestationOptions(publicKeyOptions(t, resp))
	require.NoError(t, err)
	attestation := virtualwebauthn.CreateAttestationResponse(testRP, virtualwebauthn.NewAuthenticator(), cred, *attOptions)

	parsed, err := protocol.ParseCredentialCreationResponseBytes([]byte(attestation))
	require.NoError(t, err)
	aaguid, err := uuid.FromBytes(parsed.Response.AttestationObject.AuthData.AttData.AAGUID)
	require.NoError(t, err)
	_, err = s.container.catalog.Load(ctx, strings.NewReader(fmt.Sprintf(`{%q:{"name":"Virtual Key"}}`, aaguid.String())))
	require.NoError(t, err)

	w, _ = s.do(t, http.MethodPost, "/api/auth/passkey/register", []byte(attestation), token, regCookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The ceremony is single use.
	w, _ = s.do(t, http.MethodPost, "/api/auth/passkey/register", []byte(attestation), token, regCookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = s.do(t, http.MethodGet, "/api/auth/passkey", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var passkeys []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Authenticator string `json:"authenticator"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &passkeys))
	require.Len(t, passkeys, 1)
	assert.Equal(t, "Virtual Key", passkeys[0].Name)
	assert.Equal(t, "Virtual Key", passkeys[0].Authenticator)

	// Discoverable login.
	w, resp = s.do(t, http.MethodGet, "/api/auth/passkey/auth-option", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	authCookie := cookieNamed(t, w, constants.CookieAuthenticationCeremony)

	asOptions, err := virtualwebauthn.ParseAssertionOptions(publicKeyOptions(t, resp))
	require.NoError(t, err)
	subjectID := uuid.MustParse(subject)
	authenticator := virtualwebauthn.NewAuthenticatorWithOptions(virtualwebauthn.AuthenticatorOptions{
		UserHandle: subjectID[:],
	})
	authenticator.AddCredential(cred)
	assertion := virtualwebauthn.CreateAssertionResponse(testRP, authenticator, cred, *asOptions)

	w, resp = s.do(t, http.MethodPost, "/api/auth/passkey/login", []byte(assertion), "", authCookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session struct {
		Token   string `json:"token"`
		Subject string `json:"subject"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &session))
	assert.Equal(t, subject, session.Subject)

	w, _ = s.do(t, http.MethodPost, "/api/auth/passkey/login", []byte(assertion), "", authCookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The passkey session token is accepted by the authorization endpoint.
	w, resp = s.do(t, http.MethodPost, "/api/auth/authorization", nil, session.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"authorized":true,"subject":%q,"scopes":["core:user"]}`, subject), string(resp.Data))

	// Rename then delete.
	w, _ = s.do(t, http.MethodPatch, "/api/auth/passkey/"+passkeys[0].ID, []byte(`{"name":"Desk key"}`), token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/auth/passkey/"+passkeys[0].ID, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, resp = s.do(t, http.MethodGet, "/api/auth/passkey", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestRouter_Authorization(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.passwordSession(t)

	for _, header := range []string{"", "Bearer", "Basic " + token, "Bearer " + token + "x"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/authorization", nil)
		if header != "" {
			req.Header.Set(constants.HeaderAuthorization, header)
		}
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Contains(t, w.Body.String(), constants.ErrMsgUnauthenticated)
	}
}

func TestRouter_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.passwordSession(t)

	w, resp := s.do(t, http.MethodPost, "/api/auth/password/login",
		[]byte(`{"email":"alice@example.com","password":"wrong password"}`), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, constants.ErrMsgAuthenticationFail, resp.Error.Message)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(constants.HeaderXRequestID))

	w, _ = s.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "blink_http_requests_total")
}

func TestContainer_ChallengeStoreSelection(t *testing.T) {
	deps := newTestDeps(t)

	deps.cfg.WebAuthn.ChallengeStore = "memory"
	c, err := deps.container()
	require.NoError(t, err)
	store, err := c.newChallengeStore()
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryChallengeStore{}, store)

	deps.cfg.WebAuthn.ChallengeStore = "redis"
	store, err = c.newChallengeStore()
	require.NoError(t, err)
	assert.IsType(t, &cache.RedisChallengeStore{}, store)

	deps.cfg.WebAuthn.ChallengeStore = "etcd"
	_, err = deps.container()
	assert.ErrorContains(t, err, "unsupported challenge store")
}

func TestGinMode(t *testing.T) {
	tests := map[string]string{
		constants.EnvProduction:  gin.ReleaseMode,
		gin.ReleaseMode:          gin.ReleaseMode,
		constants.EnvTest:        gin.TestMode,
		constants.EnvDevelopment: gin.DebugMode,
		"":                       gin.DebugMode,
	}
	for mode, want := range tests {
		assert.Equal(t, want, ginMode(mode), "mode %q", mode)
	}
}
