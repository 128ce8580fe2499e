package domain

import (
	"context"
	"time"
)

type LoginRequest struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

type OperatorView struct {
	Username string `json:"username"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        OperatorView `json:"user"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	// Authenticate returns the operator identity carried by a valid token.
	Authenticate(ctx context.Context, token string) (string, error)
	EnsureDefaultOperator(ctx context.Context, username, password, email string) error
}
