// Package dashboards wraps the dashboards and dashboard-cards resources:
// CRUD, on-demand card computation, and PDF export.
package dashboards

import "github.com/barale2906/carmot-go/kpis"

// Dashboard is a named arrangement of KPI cards.
type Dashboard struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
}

// DashboardInput is the dashboard create/update payload.
type DashboardInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
}

// Card places one KPI on a dashboard with a position and chart override.
type Card struct {
	ID          int64   `json:"id"`
	DashboardID int64   `json:"dashboard_id"`
	KPIID       int64   `json:"kpi_id"`
	Title       *string `json:"title,omitempty"`
	ChartType   *string `json:"chart_type,omitempty"`
	Position    int     `json:"position"`
	Width       int     `json:"width"`
}

// CardInput is the card create/update payload.
type CardInput struct {
	DashboardID int64   `json:"dashboard_id"`
	KPIID       int64   `json:"kpi_id"`
	Title       *string `json:"title,omitempty"`
	ChartType   *string `json:"chart_type,omitempty"`
	Position    int     `json:"position"`
	Width       int     `json:"width"`
}

// GroupByOption is one value of a grouping dimension, with its label.
type GroupByOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CardResult pairs a card with its computed series.
type CardResult struct {
	Card Card
	Data kpis.ChartData
}
