// Package auth provides the credentials capability handed to the remote
// client. A Session is passed explicitly; there is no process-wide user.
package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/logger"
)

// ErrNoSession is returned when no user is signed in.
var ErrNoSession = apperrors.New(apperrors.KindAuth, "session", "no signed-in user")

// Session supplies bearer tokens for the goals API.
type Session interface {
	// Token returns a currently valid bearer token.
	Token(ctx context.Context) (string, error)
	// UserID identifies the signed-in user.
	UserID(ctx context.Context) (string, error)
}

// ClaimsProvider is implemented by sessions backed by identity provider ID tokens.
type ClaimsProvider interface {
	Claims(ctx context.Context) (*Claims, error)
}

// NoSession is the signed-out state.
type NoSession struct{}

func (NoSession) Token(context.Context) (string, error)  { return "", ErrNoSession }
func (NoSession) UserID(context.Context) (string, error) { return "", ErrNoSession }

// StaticSession serves a fixed token. Used for --token and in tests.
type StaticSession struct {
	Bearer string
	User   string
}

func (s StaticSession) Token(context.Context) (string, error) {
	if s.Bearer == "" {
		return "", ErrNoSession
	}
	return s.Bearer, nil
}

func (s StaticSession) UserID(ctx context.Context) (string, error) {
	if s.User != "" {
		return s.User, nil
	}
	if s.Bearer == "" {
		return "", ErrNoSession
	}
	claims, err := ParseClaims(s.Bearer)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindAuth, "session", err)
	}
	if claims.UserID == "" {
		return "", apperrors.New(apperrors.KindAuth, "session", "token carries no user id")
	}
	return claims.UserID, nil
}

// TokenSession draws tokens from an oauth2.TokenSource, preferring the
// provider's ID token over the access token when both are present.
type TokenSession struct {
	src oauth2.TokenSource
	now func() time.Time

	mu     sync.Mutex
	claims *Claims
}

// NewTokenSession wraps src.
func NewTokenSession(src oauth2.TokenSource) *TokenSession {
	return &TokenSession{src: src, now: time.Now}
}

func (s *TokenSession) Token(ctx context.Context) (string, error) {
	if s == nil || s.src == nil {
		return "", ErrNoSession
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tok, err := s.src.Token()
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindAuth, "refresh session", err)
	}
	bearer := bearerFrom(tok)
	if bearer == "" {
		return "", apperrors.New(apperrors.KindAuth, "refresh session", "identity provider returned no token")
	}

	if claims, err := ParseClaims(bearer); err == nil {
		if exp := claims.ExpiresAt; exp != nil && s.now().After(exp.Time) {
			return "", apperrors.New(apperrors.KindAuth, "session", "session expired")
		}
		s.mu.Lock()
		s.claims = claims
		s.mu.Unlock()
	} else {
		logger.Debug("Bearer token is not a JWT", "error", err)
	}

	return bearer, nil
}

func (s *TokenSession) UserID(ctx context.Context) (string, error) {
	claims, err := s.Claims(ctx)
	if err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", apperrors.New(apperrors.KindAuth, "session", "token carries no user id")
	}
	return claims.UserID, nil
}

// Claims returns the claims of the most recent token, fetching one if needed.
func (s *TokenSession) Claims(ctx context.Context) (*Claims, error) {
	s.mu.Lock()
	claims := s.claims
	s.mu.Unlock()
	if claims != nil {
		return claims, nil
	}

	if _, err := s.Token(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claims == nil {
		return nil, apperrors.New(apperrors.KindAuth, "session", "token carries no claims")
	}
	return s.claims, nil
}

func bearerFrom(tok *oauth2.Token) string {
	if tok == nil {
		return ""
	}
	if id, ok := tok.Extra("id_token").(string); ok && id != "" {
		return id
	}
	return tok.AccessToken
}

// ProviderConfig describes the identity provider token endpoint.
type ProviderConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	// OnRotate is called with the new refresh token when the provider rotates it.
	OnRotate func(refreshToken string) error
}

// NewRefreshSession exchanges refreshToken for ID tokens on demand.
func NewRefreshSession(ctx context.Context, pc ProviderConfig, refreshToken string) *TokenSession {
	if refreshToken == "" {
		return NewTokenSession(nil)
	}

	conf := &oauth2.Config{
		ClientID:     pc.ClientID,
		ClientSecret: pc.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  pc.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if pc.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, pc.HTTPClient)
	}

	var src oauth2.TokenSource = conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	if pc.OnRotate != nil {
		src = &rotatingSource{src: src, last: refreshToken, save: pc.OnRotate}
	}
	return NewTokenSession(src)
}

// rotatingSource persists refresh tokens the provider replaces.
type rotatingSource struct {
	src  oauth2.TokenSource
	save func(string) error

	mu   sync.Mutex
	last string
}

func (r *rotatingSource) Token() (*oauth2.Token, error) {
	tok, err := r.src.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tok.RefreshToken != "" && tok.RefreshToken != r.last {
		if err := r.save(tok.RefreshToken); err != nil {
			logger.Warn("Failed to persist rotated refresh token", "error", err)
		} else {
			r.last = tok.RefreshToken
		}
	}
	return tok, nil
}
