package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest is the dashboard login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued dashboard token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
}

// DashboardClaims are the JWT claims for dashboard sessions.
type DashboardClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// BotMessage is an operator-overridable text for one conversation prompt.
// Missing or blank rows fall back to the built-in pt-BR default.
type BotMessage struct {
	ID        int64     `db:"id" json:"id"`
	Key       string    `db:"key" json:"key"`
	Text      string    `db:"text" json:"text"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
