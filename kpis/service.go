package kpis

import (
	"context"
	"fmt"
	"net/url"

	"github.com/barale2906/carmot-go/api"
)

const basePath = "/dashboard/kpis"

// Service maps the KPI resource to plain functions; one HTTP call per
// operation, no state.
type Service struct {
	client *api.Client
}

// NewService creates a KPI Service over client.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// List fetches KPI definitions, optionally filtered by params.
func (s *Service) List(ctx context.Context, params url.Values) ([]KPI, error) {
	env, err := s.client.Get(ctx, basePath, params)
	if err != nil {
		return nil, err
	}
	var kpis []KPI
	if err := env.DecodeInto(&kpis); err != nil {
		return nil, err
	}
	return kpis, nil
}

// Get fetches one KPI.
func (s *Service) Get(ctx context.Context, id int64) (*KPI, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("%s/%d", basePath, id), nil)
	if err != nil {
		return nil, err
	}
	var kpi KPI
	if err := env.DecodeInto(&kpi); err != nil {
		return nil, err
	}
	return &kpi, nil
}

// Create persists a new KPI and returns the server's representation.
func (s *Service) Create(ctx context.Context, input KPIInput) (*KPI, error) {
	env, err := s.client.Post(ctx, basePath, input)
	if err != nil {
		return nil, err
	}
	var kpi KPI
	if err := env.DecodeInto(&kpi); err != nil {
		return nil, err
	}
	return &kpi, nil
}

// Update replaces an existing KPI.
func (s *Service) Update(ctx context.Context, id int64, input KPIInput) (*KPI, error) {
	env, err := s.client.Put(ctx, fmt.Sprintf("%s/%d", basePath, id), input)
	if err != nil {
		return nil, err
	}
	var kpi KPI
	if err := env.DecodeInto(&kpi); err != nil {
		return nil, err
	}
	return &kpi, nil
}

// Delete removes a KPI.
func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.client.Delete(ctx, fmt.Sprintf("%s/%d", basePath, id))
	return err
}

// Fields fetches the fields of one KPI.
func (s *Service) Fields(ctx context.Context, kpiID int64) ([]Field, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("%s/%d/fields", basePath, kpiID), nil)
	if err != nil {
		return nil, err
	}
	var fields []Field
	if err := env.DecodeInto(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// CreateField adds a field to a KPI.
func (s *Service) CreateField(ctx context.Context, kpiID int64, input FieldInput) (*Field, error) {
	env, err := s.client.Post(ctx, fmt.Sprintf("%s/%d/fields", basePath, kpiID), input)
	if err != nil {
		return nil, err
	}
	var field Field
	if err := env.DecodeInto(&field); err != nil {
		return nil, err
	}
	return &field, nil
}

// UpdateField replaces a KPI field.
func (s *Service) UpdateField(ctx context.Context, kpiID, fieldID int64, input FieldInput) (*Field, error) {
	env, err := s.client.Put(ctx, fmt.Sprintf("%s/%d/fields/%d", basePath, kpiID, fieldID), input)
	if err != nil {
		return nil, err
	}
	var field Field
	if err := env.DecodeInto(&field); err != nil {
		return nil, err
	}
	return &field, nil
}

// DeleteField removes a KPI field.
func (s *Service) DeleteField(ctx context.Context, kpiID, fieldID int64) error {
	_, err := s.client.Delete(ctx, fmt.Sprintf("%s/%d/fields/%d", basePath, kpiID, fieldID))
	return err
}

// Relations fetches the field relations of one KPI.
func (s *Service) Relations(ctx context.Context, kpiID int64) ([]Relation, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("%s/%d/field-relations", basePath, kpiID), nil)
	if err != nil {
		return nil, err
	}
	var relations []Relation
	if err := env.DecodeInto(&relations); err != nil {
		return nil, err
	}
	return relations, nil
}

// CreateRelation adds a field relation to a KPI.
func (s *Service) CreateRelation(ctx context.Context, kpiID int64, input RelationInput) (*Relation, error) {
	env, err := s.client.Post(ctx, fmt.Sprintf("%s/%d/field-relations", basePath, kpiID), input)
	if err != nil {
		return nil, err
	}
	var relation Relation
	if err := env.DecodeInto(&relation); err != nil {
		return nil, err
	}
	return &relation, nil
}

// UpdateRelation replaces a field relation.
func (s *Service) UpdateRelation(ctx context.Context, kpiID, relationID int64, input RelationInput) (*Relation, error) {
	env, err := s.client.Put(ctx, fmt.Sprintf("%s/%d/field-relations/%d", basePath, kpiID, relationID), input)
	if err != nil {
		return nil, err
	}
	var relation Relation
	if err := env.DecodeInto(&relation); err != nil {
		return nil, err
	}
	return &relation, nil
}

// DeleteRelation removes a field relation.
func (s *Service) DeleteRelation(ctx context.Context, kpiID, relationID int64) error {
	_, err := s.client.Delete(ctx, fmt.Sprintf("%s/%d/field-relations/%d", basePath, kpiID, relationID))
	return err
}

// ChartData fetches the computed series for a KPI.
func (s *Service) ChartData(ctx context.Context, kpiID int64, params url.Values) (*ChartData, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("%s/%d/chart-data", basePath, kpiID), params)
	if err != nil {
		return nil, err
	}
	var data ChartData
	if err := env.DecodeInto(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ChartStatistics fetches the summary statistics for a KPI.
func (s *Service) ChartStatistics(ctx context.Context, kpiID int64, params url.Values) (*ChartStatistics, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("%s/%d/chart-statistics", basePath, kpiID), params)
	if err != nil {
		return nil, err
	}
	var stats ChartStatistics
	if err := env.DecodeInto(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Compute evaluates a KPI on demand.
func (s *Service) Compute(ctx context.Context, kpiID int64, params url.Values) (*ChartData, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("%s/%d/compute", basePath, kpiID), params)
	if err != nil {
		return nil, err
	}
	var data ChartData
	if err := env.DecodeInto(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CodeExists checks whether a KPI code is taken. The dedicated check-code
// endpoint is preferred; a backend without it answers through a filtered
// list query instead.
func (s *Service) CodeExists(ctx context.Context, code string) (bool, error) {
	env, err := s.client.Get(ctx, basePath+"/check-code", url.Values{"code": {code}})
	if err == nil {
		var payload struct {
			Exists bool `json:"exists"`
		}
		if decodeErr := env.DecodeInto(&payload); decodeErr != nil {
			return false, decodeErr
		}
		return payload.Exists, nil
	}

	if apiErr, ok := api.AsError(err); !ok || apiErr.Kind != api.KindNotFound {
		return false, err
	}

	kpis, err := s.List(ctx, url.Values{"code": {code}})
	if err != nil {
		return false, err
	}
	return len(kpis) > 0, nil
}
