// Package kpis wraps the KPI REST resource and caches its collections: the
// KPI definitions themselves, their fields, and the relations between
// fields.
package kpis

import (
	"github.com/google/uuid"
)

// KPI is a named computed metric definition.
type KPI struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Code            string  `json:"code"`
	Description     *string `json:"description,omitempty"`
	CalculationType *string `json:"calculation_type,omitempty"`
	ModelID         *int64  `json:"model_id,omitempty"`
	ChartType       *string `json:"chart_type,omitempty"`
	IsActive        bool    `json:"is_active"`
}

// KPIInput is the create/update payload. Optional fields stay absent when
// nil.
type KPIInput struct {
	Name            string  `json:"name"`
	Code            string  `json:"code"`
	Description     *string `json:"description,omitempty"`
	CalculationType *string `json:"calculation_type,omitempty"`
	ModelID         *int64  `json:"model_id,omitempty"`
	ChartType       *string `json:"chart_type,omitempty"`
	IsActive        bool    `json:"is_active"`
}

// Field binds a KPI to one backend model field plus an operation.
type Field struct {
	ID           int64   `json:"id"`
	KPIID        int64   `json:"kpi_id"`
	ModelFieldID int64   `json:"model_field_id"`
	Operation    *string `json:"operation,omitempty"`
	Label        *string `json:"label,omitempty"`
}

// FieldInput is the field create/update payload.
type FieldInput struct {
	ModelFieldID int64   `json:"model_field_id"`
	Operation    *string `json:"operation,omitempty"`
	Label        *string `json:"label,omitempty"`
}

// Relation combines two KPI fields through an operation.
type Relation struct {
	ID           int64  `json:"id"`
	KPIID        int64  `json:"kpi_id"`
	LeftFieldID  int64  `json:"left_field_id"`
	RightFieldID int64  `json:"right_field_id"`
	Operation    string `json:"operation"`
}

// RelationInput is the relation create/update payload.
type RelationInput struct {
	LeftFieldID  int64  `json:"left_field_id"`
	RightFieldID int64  `json:"right_field_id"`
	Operation    string `json:"operation"`
}

// ChartData is a computed KPI series ready for rendering.
type ChartData struct {
	Labels []string  `json:"labels"`
	Series []float64 `json:"series"`
	Unit   *string   `json:"unit,omitempty"`
}

// ChartStatistics summarises a computed KPI.
type ChartStatistics struct {
	Total   float64  `json:"total"`
	Average float64  `json:"average"`
	Minimum *float64 `json:"min,omitempty"`
	Maximum *float64 `json:"max,omitempty"`
}

// PendingField is a field captured before its parent KPI exists. It holds a
// process-local id until reconciliation persists it.
type PendingField struct {
	LocalID uuid.UUID
	Input   FieldInput
}
