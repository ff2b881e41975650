package models

import "time"

// HealthStatus is the coarse WAHA gateway state recorded by the monitor.
type HealthStatus string

const (
	HealthOnline  HealthStatus = "online"
	HealthOffline HealthStatus = "offline"
	HealthError   HealthStatus = "error"
)

// BotHealthCheck is one monitor probe of the WAHA session endpoint.
type BotHealthCheck struct {
	ID             string       `db:"id" json:"id"`
	Status         HealthStatus `db:"status" json:"status"`
	ResponseTimeMs *float64     `db:"response_time_ms" json:"response_time_ms,omitempty"`
	SessionStatus  string       `db:"session_status" json:"session_status"`
	ErrorMessage   *string      `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

// BotStatus aggregates recent health checks for the dashboard.
type BotStatus struct {
	Status        HealthStatus `json:"status"`
	SessionStatus string       `json:"session_status"`
	LastCheck     *time.Time   `json:"last_check,omitempty"`
	UptimePercent float64      `json:"uptime_percent"`
	AvgResponseMs float64      `json:"avg_response_ms"`
}
