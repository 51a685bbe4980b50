package metadata

import (
	"context"
	"sync"

	"github.com/barale2906/carmot-go/api"
	"github.com/rs/zerolog"
)

const (
	msgLoadModels     = "Error cargando modelos"
	msgLoadFields     = "Error cargando campos del modelo"
	msgLoadChartTypes = "Error cargando tipos de gráfico"
	msgLoadLookups    = "Error cargando catálogos"
)

// Store caches lookup collections wholesale. Model fields are keyed by
// model so switching between models does not refetch.
type Store struct {
	svc *Service
	log zerolog.Logger

	mu          sync.Mutex
	models      []Model
	modelFields map[int64][]ModelField
	chartTypes  []ChartType
	chartParams map[string][]ChartParameter
	groupBy     map[int64][]GroupByField
	filterTypes []FilterType
	operations  []FieldOperation
	lastError   string
}

// NewStore creates an empty metadata store over svc.
func NewStore(svc *Service, logger *zerolog.Logger) *Store {
	storeLog := zerolog.Nop()
	if logger != nil {
		storeLog = *logger
	}
	return &Store{
		svc:         svc,
		log:         storeLog,
		modelFields: map[int64][]ModelField{},
		chartParams: map[string][]ChartParameter{},
		groupBy:     map[int64][]GroupByField{},
	}
}

// Models returns the cached models, fetching once on first use.
func (s *Store) Models(ctx context.Context) ([]Model, error) {
	s.mu.Lock()
	cached := s.models
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	models, err := s.svc.Models(ctx)
	if err != nil {
		s.fail(msgLoadModels, err)
		return nil, err
	}
	s.mu.Lock()
	s.models = models
	s.lastError = ""
	s.mu.Unlock()
	return models, nil
}

// ModelFields returns the cached fields of one model, fetching on miss.
func (s *Store) ModelFields(ctx context.Context, modelID int64) ([]ModelField, error) {
	s.mu.Lock()
	cached, ok := s.modelFields[modelID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	fields, err := s.svc.ModelFields(ctx, modelID)
	if err != nil {
		s.fail(msgLoadFields, err)
		return nil, err
	}
	s.mu.Lock()
	s.modelFields[modelID] = fields
	s.lastError = ""
	s.mu.Unlock()
	return fields, nil
}

// ChartTypes returns the cached chart types, fetching once on first use.
func (s *Store) ChartTypes(ctx context.Context) ([]ChartType, error) {
	s.mu.Lock()
	cached := s.chartTypes
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	types, err := s.svc.ChartTypes(ctx)
	if err != nil {
		s.fail(msgLoadChartTypes, err)
		return nil, err
	}
	s.mu.Lock()
	s.chartTypes = types
	s.lastError = ""
	s.mu.Unlock()
	return types, nil
}

// ChartTypeParameters returns the cached parameters of one chart type.
func (s *Store) ChartTypeParameters(ctx context.Context, chartType string) ([]ChartParameter, error) {
	s.mu.Lock()
	cached, ok := s.chartParams[chartType]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	params, err := s.svc.ChartTypeParameters(ctx, chartType)
	if err != nil {
		s.fail(msgLoadLookups, err)
		return nil, err
	}
	s.mu.Lock()
	s.chartParams[chartType] = params
	s.lastError = ""
	s.mu.Unlock()
	return params, nil
}

// GroupByFields returns the cached grouping dimensions of one model.
func (s *Store) GroupByFields(ctx context.Context, modelID int64) ([]GroupByField, error) {
	s.mu.Lock()
	cached, ok := s.groupBy[modelID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	fields, err := s.svc.GroupByFields(ctx, modelID)
	if err != nil {
		s.fail(msgLoadLookups, err)
		return nil, err
	}
	s.mu.Lock()
	s.groupBy[modelID] = fields
	s.lastError = ""
	s.mu.Unlock()
	return fields, nil
}

// FilterTypes returns the cached filter operators.
func (s *Store) FilterTypes(ctx context.Context) ([]FilterType, error) {
	s.mu.Lock()
	cached := s.filterTypes
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	types, err := s.svc.FilterTypes(ctx)
	if err != nil {
		s.fail(msgLoadLookups, err)
		return nil, err
	}
	s.mu.Lock()
	s.filterTypes = types
	s.lastError = ""
	s.mu.Unlock()
	return types, nil
}

// FieldOperations returns the cached relation operations.
func (s *Store) FieldOperations(ctx context.Context) ([]FieldOperation, error) {
	s.mu.Lock()
	cached := s.operations
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	ops, err := s.svc.FieldOperations(ctx)
	if err != nil {
		s.fail(msgLoadLookups, err)
		return nil, err
	}
	s.mu.Lock()
	s.operations = ops
	s.lastError = ""
	s.mu.Unlock()
	return ops, nil
}

// LastError returns the most recent user-facing failure message, or "".
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Invalidate drops everything cached so the next read refetches.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = nil
	s.modelFields = map[int64][]ModelField{}
	s.chartTypes = nil
	s.chartParams = map[string][]ChartParameter{}
	s.groupBy = map[int64][]GroupByField{}
	s.filterTypes = nil
	s.operations = nil
	s.lastError = ""
}

func (s *Store) fail(fallback string, err error) {
	message := fallback
	if apiErr, ok := api.AsError(err); ok && apiErr.Message != "" {
		message = apiErr.Message
	}
	s.mu.Lock()
	s.lastError = message
	s.mu.Unlock()
	s.log.Warn().Err(err).Msg(fallback)
}
