package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
)

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestParseClaims_FallsBackToSubject(t *testing.T) {
	tok := signToken(t, Claims{
		Email:            "a@example.com",
		EmailVerified:    true,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})

	claims, err := ParseClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestParseClaims_RejectsGarbage(t *testing.T) {
	_, err := ParseClaims("not-a-jwt")
	assert.Error(t, err)
}

func TestNoSession(t *testing.T) {
	_, err := NoSession{}.Token(context.Background())
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestStaticSession(t *testing.T) {
	ctx := context.Background()

	s := StaticSession{Bearer: "abc", User: "u1"}
	tok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
	uid, err := s.UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)

	jwtSession := StaticSession{Bearer: signToken(t, Claims{UserID: "u2"})}
	uid, err = jwtSession.UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u2", uid)

	_, err = StaticSession{}.Token(ctx)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestTokenSession_PrefersIDToken(t *testing.T) {
	idToken := signToken(t, Claims{UserID: "u3"})
	tok := (&oauth2.Token{AccessToken: "access"}).WithExtra(map[string]any{"id_token": idToken})

	s := NewTokenSession(oauth2.StaticTokenSource(tok))
	bearer, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, idToken, bearer)

	uid, err := s.UserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u3", uid)
}

func TestTokenSession_ExpiredToken(t *testing.T) {
	expired := signToken(t, Claims{
		UserID:           "u4",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})
	s := NewTokenSession(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: expired}))

	_, err := s.Token(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestTokenSession_Nil(t *testing.T) {
	s := NewTokenSession(nil)
	_, err := s.UserID(context.Background())
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestRefreshSession_ExchangesAndRotates(t *testing.T) {
	idToken := signToken(t, Claims{UserID: "u5", EmailVerified: false})
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "new-refresh",
			"id_token":      idToken,
		})
	}))
	defer srv.Close()

	var rotated string
	s := NewRefreshSession(context.Background(), ProviderConfig{
		TokenURL:   srv.URL,
		ClientID:   "client-1",
		HTTPClient: srv.Client(),
		OnRotate: func(rt string) error {
			rotated = rt
			return nil
		},
	}, "old-refresh")

	bearer, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, idToken, bearer)
	assert.Equal(t, "new-refresh", rotated)

	claims, err := s.Claims(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u5", claims.UserID)
	assert.False(t, claims.EmailVerified)

	// Cached until expiry.
	_, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRefreshSession_ProviderFailureIsAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	s := NewRefreshSession(context.Background(), ProviderConfig{TokenURL: srv.URL, HTTPClient: srv.Client()}, "bad")
	_, err := s.Token(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestRefreshSession_EmptyRefreshToken(t *testing.T) {
	s := NewRefreshSession(context.Background(), ProviderConfig{}, "")
	_, err := s.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}
