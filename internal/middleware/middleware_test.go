package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaglebank/purchase-service/internal/apperror"
	"github.com/eaglebank/purchase-service/internal/logging"
	"github.com/eaglebank/purchase-service/internal/security"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

// whoami echoes the resolved account id, or 0 when there is no credential.
func whoami(c *gin.Context) {
	cred, err := security.CredentialFromContext(c)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"accountId": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accountId": cred.AccountID, "canRead": cred.Permissions.Has(security.Grant{Securable: security.Purchase, Permission: security.Read})})
}

func doRequest(r http.Handler, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mustToken(t *testing.T, secret []byte, issuer string, accountID int64, ttl time.Duration) string {
	t.Helper()
	token, err := IssueToken(secret, issuer, accountID, []security.Grant{{Securable: security.Purchase, Permission: security.Read}}, ttl, time.Now())
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	r := gin.New()
	r.GET("/me", Authenticate(testSecret, "purchase-service"), whoami)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantID     float64
	}{
		{"no header passes through", "", http.StatusOK, 0},
		{"valid token", "Bearer " + mustToken(t, testSecret, "purchase-service", 5, time.Hour), http.StatusOK, 5},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, 0},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized, 0},
		{"wrong secret", "Bearer " + mustToken(t, []byte("other"), "purchase-service", 5, time.Hour), http.StatusUnauthorized, 0},
		{"expired", "Bearer " + mustToken(t, testSecret, "purchase-service", 5, -time.Minute), http.StatusUnauthorized, 0},
		{"wrong issuer", "Bearer " + mustToken(t, testSecret, "someone-else", 5, time.Hour), http.StatusUnauthorized, 0},
		{"missing account", "Bearer " + mustToken(t, testSecret, "purchase-service", 0, time.Hour), http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		headers := map[string]string{}
		if tt.header != "" {
			headers["Authorization"] = tt.header
		}
		w := doRequest(r, http.MethodGet, "/me", nil, headers)
		if w.Code != tt.wantStatus {
			t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.wantStatus, w.Code, w.Body.String())
			continue
		}
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		if tt.wantStatus == http.StatusOK {
			assert.Equal(t, tt.wantID, body["accountId"], tt.name)
		} else {
			assert.Equal(t, false, body["success"], tt.name)
			assert.Equal(t, "UNAUTHENTICATED", body["code"], tt.name)
		}
	}
}

func TestAuthenticate_PermissionsAttached(t *testing.T) {
	r := gin.New()
	r.GET("/me", Authenticate(testSecret, ""), whoami)

	w := doRequest(r, http.MethodGet, "/me", nil, map[string]string{
		"Authorization": "Bearer " + mustToken(t, testSecret, "", 9, time.Hour),
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"accountId":9,"canRead":true}`, w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, logging.Discard())
	r := gin.New()
	r.GET("/x", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := doRequest(r, http.MethodGet, "/x", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := doRequest(r, http.MethodGet, "/x", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestRateLimiter_KeysByAccount(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, logging.Discard())
	r := gin.New()
	r.GET("/x", Authenticate(testSecret, ""), rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	first := map[string]string{"Authorization": "Bearer " + mustToken(t, testSecret, "", 1, time.Hour)}
	second := map[string]string{"Authorization": "Bearer " + mustToken(t, testSecret, "", 2, time.Hour)}

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/x", nil, first).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/x", nil, second).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, http.MethodGet, "/x", nil, first).Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(r, http.MethodGet, "/x", nil, map[string]string{"Origin": "https://APP.example.com"})
	assert.Equal(t, "https://APP.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = doRequest(r, http.MethodGet, "/x", nil, map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = doRequest(r, http.MethodOptions, "/x", nil, map[string]string{"Origin": "https://app.example.com"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.POST("/x", BodyLimit(8), func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodPost, "/x", strings.NewReader("small"), nil).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, doRequest(r, http.MethodPost, "/x", strings.NewReader("much too large"), nil).Code)
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Discard()
	logger.SetOutput(&buf)

	r := gin.New()
	r.Use(LoggingMiddleware(logger))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := doRequest(r, http.MethodGet, "/x", nil, map[string]string{RequestIDHeader: "req-1"})

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "req-1")
	assert.Contains(t, buf.String(), "request rejected")

	w = doRequest(r, http.MethodGet, "/x", nil, nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRespondWithAppError(t *testing.T) {
	tests := []struct {
		name        string
		err         *apperror.Error
		wantStatus  int
		wantCode    string
		wantDetails int
	}{
		{"validation carries details", apperror.Validation([]apperror.FieldError{{Field: "quantity", Message: "Must have at most 4 decimal places", Type: "places"}}), http.StatusBadRequest, apperror.CodeValidation, 1},
		{"not found", apperror.NotFound("Purchase not found"), http.StatusNotFound, apperror.CodeNotFound, 0},
		{"persistence uses general status", apperror.Persistence(io.ErrUnexpectedEOF), http.StatusServiceUnavailable, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) { RespondWithAppError(c, tt.err, http.StatusServiceUnavailable) })

			w := doRequest(r, http.MethodGet, "/", nil, nil)

			require.Equal(t, tt.wantStatus, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Len(t, resp.Details, tt.wantDetails)
			assert.NotContains(t, w.Body.String(), "unexpected EOF")
		})
	}
}
