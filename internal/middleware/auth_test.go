package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, secret, userID, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authErrorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp["code"]
}

func TestRequireAuth_ValidToken(t *testing.T) {
	var gotUser string
	h := RequireAuth(testJWTSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testJWTSecret, "user-1", "learner", time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-1", gotUser)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	h := RequireAuth(testJWTSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "auth_required", authErrorCode(t, rec.Body.Bytes()))
}

func TestRequireAuth_WrongScheme(t *testing.T) {
	h := RequireAuth(testJWTSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "auth_invalid_scheme", authErrorCode(t, rec.Body.Bytes()))
}

func TestRequireAuth_BadSignature(t *testing.T) {
	h := RequireAuth(testJWTSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	otherSecret := "ffffffffffffffffffffffffffffffff"
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, otherSecret, "user-1", "learner", time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "auth_invalid", authErrorCode(t, rec.Body.Bytes()))
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	h := RequireAuth(testJWTSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testJWTSecret, "user-1", "learner", -time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "auth_invalid", authErrorCode(t, rec.Body.Bytes()))
}

func TestRequireRole(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireAuth(testJWTSecret)(RequireRole("admin")(handler))

	t.Run("matching role passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/certificates", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testJWTSecret, "admin-1", "admin", time.Hour))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("other role forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/certificates", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testJWTSecret, "user-1", "learner", time.Hour))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "forbidden", authErrorCode(t, rec.Body.Bytes()))
	})
}
