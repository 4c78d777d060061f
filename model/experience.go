package model

import "github.com/shopspring/decimal"

type Experience struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	DurationMinutes int             `json:"duration_minutes"`
	Price           decimal.Decimal `json:"price"`
	IsActive        bool            `json:"is_active"`
}
