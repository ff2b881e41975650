package models

import "time"

// BotConfiguration is the dashboard-managed WAHA connection record. The most
// recent row wins; absent rows fall back to environment configuration.
type BotConfiguration struct {
	ID          int64     `db:"id" json:"id"`
	WahaURL     string    `db:"waha_url" json:"waha_url"`
	WahaAPIKey  string    `db:"waha_api_key" json:"-"`
	WahaSession string    `db:"waha_session" json:"waha_session"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// BotConfigurationInput is the dashboard payload for updating the connection.
type BotConfigurationInput struct {
	WahaURL     string `json:"waha_url" validate:"required,url"`
	WahaAPIKey  string `json:"waha_api_key" validate:"required"`
	WahaSession string `json:"waha_session" validate:"required,max=100"`
}
