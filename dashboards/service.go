package dashboards

import (
	"context"
	"fmt"
	"net/url"

	"github.com/barale2906/carmot-go/api"
	"github.com/barale2906/carmot-go/kpis"
)

const (
	dashboardsPath = "/dashboard/dashboards"
	cardsPath      = "/dashboard/dashboard-cards"
)

// Service maps the dashboards and dashboard-cards resources to plain
// functions.
type Service struct {
	client *api.Client
}

// NewService creates a dashboards Service over client.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// List fetches dashboards, optionally filtered by params.
func (s *Service) List(ctx context.Context, params url.Values) ([]Dashboard, error) {
	env, err := s.client.Get(ctx, dashboardsPath, params)
	if err != nil {
		return nil, err
	}
	var dashboards []Dashboard
	if err := env.DecodeInto(&dashboards); err != nil {
		return nil, err
	}
	return dashboards, nil
}

// Get fetches one dashboard.
func (s *Service) Get(ctx context.Context, id int64) (*Dashboard, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("%s/%d", dashboardsPath, id), nil)
	if err != nil {
		return nil, err
	}
	var dashboard Dashboard
	if err := env.DecodeInto(&dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// Create persists a new dashboard.
func (s *Service) Create(ctx context.Context, input DashboardInput) (*Dashboard, error) {
	env, err := s.client.Post(ctx, dashboardsPath, input)
	if err != nil {
		return nil, err
	}
	var dashboard Dashboard
	if err := env.DecodeInto(&dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// Update replaces an existing dashboard.
func (s *Service) Update(ctx context.Context, id int64, input DashboardInput) (*Dashboard, error) {
	env, err := s.client.Put(ctx, fmt.Sprintf("%s/%d", dashboardsPath, id), input)
	if err != nil {
		return nil, err
	}
	var dashboard Dashboard
	if err := env.DecodeInto(&dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// Delete removes a dashboard.
func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.client.Delete(ctx, fmt.Sprintf("%s/%d", dashboardsPath, id))
	return err
}

// ExportPDF renders a dashboard server-side and returns the raw PDF bytes.
func (s *Service) ExportPDF(ctx context.Context, id int64) ([]byte, error) {
	return s.client.PostRaw(ctx, fmt.Sprintf("%s/%d/export-pdf", dashboardsPath, id), struct{}{})
}

// Cards fetches the cards of one dashboard.
func (s *Service) Cards(ctx context.Context, dashboardID int64, params url.Values) ([]Card, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("%s/%d/cards", dashboardsPath, dashboardID), params)
	if err != nil {
		return nil, err
	}
	var cards []Card
	if err := env.DecodeInto(&cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// Card fetches one card.
func (s *Service) Card(ctx context.Context, id int64) (*Card, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("%s/%d", cardsPath, id), nil)
	if err != nil {
		return nil, err
	}
	var card Card
	if err := env.DecodeInto(&card); err != nil {
		return nil, err
	}
	return &card, nil
}

// CreateCard persists a new card.
func (s *Service) CreateCard(ctx context.Context, input CardInput) (*Card, error) {
	env, err := s.client.Post(ctx, cardsPath, input)
	if err != nil {
		return nil, err
	}
	var card Card
	if err := env.DecodeInto(&card); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard replaces an existing card.
func (s *Service) UpdateCard(ctx context.Context, id int64, input CardInput) (*Card, error) {
	env, err := s.client.Put(ctx, fmt.Sprintf("%s/%d", cardsPath, id), input)
	if err != nil {
		return nil, err
	}
	var card Card
	if err := env.DecodeInto(&card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard removes a card.
func (s *Service) DeleteCard(ctx context.Context, id int64) error {
	_, err := s.client.Delete(ctx, fmt.Sprintf("%s/%d", cardsPath, id))
	return err
}

// ComputeCard evaluates the KPI behind one card.
func (s *Service) ComputeCard(ctx context.Context, id int64, params url.Values) (*kpis.ChartData, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("%s/%d/compute", cardsPath, id), params)
	if err != nil {
		return nil, err
	}
	var data kpis.ChartData
	if err := env.DecodeInto(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GroupByOptions fetches the distinct values of one grouping field.
func (s *Service) GroupByOptions(ctx context.Context, modelID int64, field string, params url.Values) ([]GroupByOption, error) {
	env, err := s.client.Get(ctx, fmt.Sprintf("/dashboard/kpis/models/%d/group-by/%s", modelID, field), params)
	if err != nil {
		return nil, err
	}
	var options []GroupByOption
	if err := env.DecodeInto(&options); err != nil {
		return nil, err
	}
	return options, nil
}
