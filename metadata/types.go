// Package metadata exposes the KPI builder's lookup data: the backend
// models a KPI can draw from, their fields, and the chart and filter
// vocabularies. Everything here is read-only and cached wholesale.
package metadata

// Model is a backend data model KPIs can be built on.
type Model struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// ModelField is one column of a backend model.
type ModelField struct {
	ID      int64  `json:"id"`
	ModelID int64  `json:"model_id"`
	Name    string `json:"name"`
	Label   string `json:"label"`
	Type    string `json:"type"`
}

// ChartType names a supported chart rendering.
type ChartType struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ChartParameter is one configurable knob of a chart type.
type ChartParameter struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// GroupByField is a model field usable as a grouping dimension.
type GroupByField struct {
	Field string `json:"field"`
	Label string `json:"label"`
}

// FilterType names a supported filter operator.
type FilterType struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldOperation names an operation usable in a field relation.
type FieldOperation struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
