package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlotStatus tracks a plot's sales lifecycle.
type PlotStatus string

const (
	PlotStatusAvailable PlotStatus = "AVAILABLE"
	PlotStatusBooked    PlotStatus = "BOOKED"
	PlotStatusSold      PlotStatus = "SOLD"
)

// Plot is a sellable unit of land within a project.
type Plot struct {
	ID        string          `db:"id" json:"id"`
	ProjectID string          `db:"project_id" json:"project_id"`
	Number    string          `db:"number" json:"number"`
	AreaSqm   decimal.Decimal `db:"area_sqm" json:"area_sqm"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Status    PlotStatus      `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
