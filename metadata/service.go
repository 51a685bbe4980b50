package metadata

import (
	"context"
	"fmt"

	"github.com/barale2906/carmot-go/api"
)

// Service fetches lookup data from the dashboard API.
type Service struct {
	client *api.Client
}

// NewService creates a metadata Service over client.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Models fetches the backend models available for KPI building.
func (s *Service) Models(ctx context.Context) ([]Model, error) {
	env, err := s.client.Get(ctx, "/dashboard/kpi-metadata/models", nil)
	if err != nil {
		return nil, err
	}
	var models []Model
	if err := env.DecodeInto(&models); err != nil {
		return nil, err
	}
	return models, nil
}

// ModelFields fetches the fields of one model.
func (s *Service) ModelFields(ctx context.Context, modelID int64) ([]ModelField, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("/dashboard/kpi-metadata/models/%d/fields", modelID), nil)
	if err != nil {
		return nil, err
	}
	var fields []ModelField
	if err := env.DecodeInto(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// ChartTypes fetches the supported chart renderings.
func (s *Service) ChartTypes(ctx context.Context) ([]ChartType, error) {
	env, err := s.client.Get(ctx, "/dashboard/chart-types", nil)
	if err != nil {
		return nil, err
	}
	var types []ChartType
	if err := env.DecodeInto(&types); err != nil {
		return nil, err
	}
	return types, nil
}

// ChartTypeParameters fetches the configurable parameters of one chart type.
func (s *Service) ChartTypeParameters(ctx context.Context, chartType string) ([]ChartParameter, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("/dashboard/chart-types/%s/parameters", chartType), nil)
	if err != nil {
		return nil, err
	}
	var params []ChartParameter
	if err := env.DecodeInto(&params); err != nil {
		return nil, err
	}
	return params, nil
}

// GroupByFields fetches the grouping dimensions of one model.
func (s *Service) GroupByFields(ctx context.Context, modelID int64) ([]GroupByField, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("/dashboard/models/%d/group-by-fields", modelID), nil)
	if err != nil {
		return nil, err
	}
	var fields []GroupByField
	if err := env.DecodeInto(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// FilterTypes fetches the supported filter operators.
func (s *Service) FilterTypes(ctx context.Context) ([]FilterType, error) {
	env, err := s.client.Get(ctx, "/dashboard/filter-types", nil)
	if err != nil {
		return nil, err
	}
	var types []FilterType
	if err := env.DecodeInto(&types); err != nil {
		return nil, err
	}
	return types, nil
}

// FieldOperations fetches the operations usable in field relations.
func (s *Service) FieldOperations(ctx context.Context) ([]FieldOperation, error) {
	env, err := s.client.Get(ctx, "/dashboard/field-relations/operations", nil)
	if err != nil {
		return nil, err
	}
	var ops []FieldOperation
	if err := env.DecodeInto(&ops); err != nil {
		return nil, err
	}
	return ops, nil
}
