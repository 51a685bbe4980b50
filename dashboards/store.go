package dashboards

import (
	"context"
	"net/url"
	"sync"

	"github.com/barale2906/carmot-go/api"
	"github.com/rs/zerolog"
)

const (
	msgLoadDashboards  = "Error cargando dashboards"
	msgLoadDashboard   = "Error cargando dashboard"
	msgCreateDashboard = "Error creando dashboard"
	msgUpdateDashboard = "Error actualizando dashboard"
	msgDeleteDashboard = "Error eliminando dashboard"
	msgLoadCards       = "Error cargando tarjetas del dashboard"
	msgSaveCard        = "Error guardando tarjeta"
	msgDeleteCard      = "Error eliminando tarjeta"
	msgComputeCard     = "Error calculando tarjeta"
	msgExportPDF       = "Error exportando PDF"
)

// Store caches the dashboard and card collections with the same contract
// as the KPI store: mutate only after the backend confirmed.
type Store struct {
	svc *Service
	log zerolog.Logger

	mu         sync.Mutex
	dashboards []Dashboard
	current    *Dashboard
	cards      []Card
	lastError  string
}

// NewStore creates an empty dashboard store over svc.
func NewStore(svc *Service, logger *zerolog.Logger) *Store {
	storeLog := zerolog.Nop()
	if logger != nil {
		storeLog = *logger
	}
	return &Store{svc: svc, log: storeLog}
}

// FetchDashboards replaces the cached collection wholesale.
func (s *Store) FetchDashboards(ctx context.Context, params url.Values) ([]Dashboard, error) {
	dashboards, err := s.svc.List(ctx, params)
	if err != nil {
		s.fail(msgLoadDashboards, err)
		return nil, err
	}
	s.mu.Lock()
	s.dashboards = dashboards
	s.lastError = ""
	s.mu.Unlock()
	return s.Dashboards(), nil
}

// FetchDashboard loads one dashboard as the current selection along with
// its cards.
func (s *Store) FetchDashboard(ctx context.Context, id int64) (*Dashboard, error) {
	dashboard, err := s.svc.Get(ctx, id)
	if err != nil {
		s.fail(msgLoadDashboard, err)
		return nil, err
	}
	cards, err := s.svc.Cards(ctx, id, nil)
	if err != nil {
		s.fail(msgLoadCards, err)
		return nil, err
	}
	s.mu.Lock()
	s.current = dashboard
	s.cards = cards
	s.lastError = ""
	s.mu.Unlock()
	copied := *dashboard
	return &copied, nil
}

// CreateDashboard persists a new dashboard and inserts the server's
// representation.
func (s *Store) CreateDashboard(ctx context.Context, input DashboardInput) (*Dashboard, error) {
	dashboard, err := s.svc.Create(ctx, input)
	if err != nil {
		s.fail(msgCreateDashboard, err)
		return nil, err
	}
	s.mu.Lock()
	s.dashboards = append(s.dashboards, *dashboard)
	s.current = dashboard
	s.cards = nil
	s.lastError = ""
	s.mu.Unlock()
	copied := *dashboard
	return &copied, nil
}

// UpdateDashboard replaces the entity with the server's representation.
func (s *Store) UpdateDashboard(ctx context.Context, id int64, input DashboardInput) (*Dashboard, error) {
	dashboard, err := s.svc.Update(ctx, id, input)
	if err != nil {
		s.fail(msgUpdateDashboard, err)
		return nil, err
	}
	s.mu.Lock()
	for i := range s.dashboards {
		if s.dashboards[i].ID == id {
			s.dashboards[i] = *dashboard
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = dashboard
	}
	s.lastError = ""
	s.mu.Unlock()
	copied := *dashboard
	return &copied, nil
}

// DeleteDashboard removes exactly the entity with id.
func (s *Store) DeleteDashboard(ctx context.Context, id int64) error {
	if err := s.svc.Delete(ctx, id); err != nil {
		s.fail(msgDeleteDashboard, err)
		return err
	}
	s.mu.Lock()
	kept := s.dashboards[:0]
	for _, dashboard := range s.dashboards {
		if dashboard.ID != id {
			kept = append(kept, dashboard)
		}
	}
	s.dashboards = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.cards = nil
	}
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

// FetchCards replaces the cached card collection for one dashboard.
func (s *Store) FetchCards(ctx context.Context, dashboardID int64) ([]Card, error) {
	cards, err := s.svc.Cards(ctx, dashboardID, nil)
	if err != nil {
		s.fail(msgLoadCards, err)
		return nil, err
	}
	s.mu.Lock()
	s.cards = cards
	s.lastError = ""
	s.mu.Unlock()
	return s.Cards(), nil
}

// CreateCard persists a new card and inserts the server's representation.
func (s *Store) CreateCard(ctx context.Context, input CardInput) (*Card, error) {
	card, err := s.svc.CreateCard(ctx, input)
	if err != nil {
		s.fail(msgSaveCard, err)
		return nil, err
	}
	s.mu.Lock()
	s.cards = append(s.cards, *card)
	s.lastError = ""
	s.mu.Unlock()
	copied := *card
	return &copied, nil
}

// UpdateCard replaces a card with the server's representation.
func (s *Store) UpdateCard(ctx context.Context, id int64, input CardInput) (*Card, error) {
	card, err := s.svc.UpdateCard(ctx, id, input)
	if err != nil {
		s.fail(msgSaveCard, err)
		return nil, err
	}
	s.mu.Lock()
	for i := range s.cards {
		if s.cards[i].ID == id {
			s.cards[i] = *card
			break
		}
	}
	s.lastError = ""
	s.mu.Unlock()
	copied := *card
	return &copied, nil
}

// DeleteCard removes a card from the dashboard and the cache.
func (s *Store) DeleteCard(ctx context.Context, id int64) error {
	if err := s.svc.DeleteCard(ctx, id); err != nil {
		s.fail(msgDeleteCard, err)
		return err
	}
	s.mu.Lock()
	kept := s.cards[:0]
	for _, card := range s.cards {
		if card.ID != id {
			kept = append(kept, card)
		}
	}
	s.cards = kept
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

// ComputeCards evaluates every cached card and returns the results in
// card order. A failing card stops the walk and reports which card broke.
func (s *Store) ComputeCards(ctx context.Context, params url.Values) ([]CardResult, error) {
	cards := s.Cards()
	results := make([]CardResult, 0, len(cards))
	for _, card := range cards {
		data, err := s.svc.ComputeCard(ctx, card.ID, params)
		if err != nil {
			s.fail(msgComputeCard, err)
			return results, err
		}
		results = append(results, CardResult{Card: card, Data: *data})
	}
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
	return results, nil
}

// ExportPDF renders the dashboard server-side and returns the PDF bytes.
func (s *Store) ExportPDF(ctx context.Context, id int64) ([]byte, error) {
	pdf, err := s.svc.ExportPDF(ctx, id)
	if err != nil {
		s.fail(msgExportPDF, err)
		return nil, err
	}
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
	return pdf, nil
}

// Dashboards returns a copy of the cached collection.
func (s *Store) Dashboards() []Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Dashboard, len(s.dashboards))
	copy(out, s.dashboards)
	return out
}

// Current returns a copy of the selected dashboard, or nil.
func (s *Store) Current() *Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Cards returns a copy of the cached card collection.
func (s *Store) Cards() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Card, len(s.cards))
	copy(out, s.cards)
	return out
}

// Count returns the number of cached dashboards.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dashboards)
}

// LastError returns the most recent user-facing failure message, or "".
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// ClearError forgets the recorded failure message.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
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
