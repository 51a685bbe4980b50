package kpis

import (
	"context"
	"net/url"
	"sync"

	"github.com/barale2906/carmot-go/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Fallback copy when the backend gives no message.
const (
	msgLoadKPIs       = "Error cargando KPIs"
	msgLoadKPI        = "Error cargando KPI"
	msgCreateKPI      = "Error creando KPI"
	msgUpdateKPI      = "Error actualizando KPI"
	msgDeleteKPI      = "Error eliminando KPI"
	msgLoadFields     = "Error cargando campos del KPI"
	msgSaveField      = "Error guardando campo del KPI"
	msgDeleteField    = "Error eliminando campo del KPI"
	msgLoadRelations  = "Error cargando relaciones del KPI"
	msgSaveRelation   = "Error guardando relación del KPI"
	msgDeleteRelation = "Error eliminando relación del KPI"
)

// Store caches the KPI collections and mutates them only after the backend
// confirmed the corresponding operation. A failed call leaves every
// collection untouched and records a user-facing message.
type Store struct {
	svc *Service
	log zerolog.Logger

	mu        sync.Mutex
	kpis      []KPI
	current   *KPI
	fields    []Field
	relations []Relation
	pending   []PendingField
	lastError string
}

// NewStore creates an empty KPI store over svc.
func NewStore(svc *Service, logger *zerolog.Logger) *Store {
	storeLog := zerolog.Nop()
	if logger != nil {
		storeLog = *logger
	}
	return &Store{svc: svc, log: storeLog}
}

// FetchKPIs replaces the cached KPI collection wholesale.
func (s *Store) FetchKPIs(ctx context.Context, params url.Values) ([]KPI, error) {
	kpis, err := s.svc.List(ctx, params)
	if err != nil {
		s.fail(msgLoadKPIs, err)
		return nil, err
	}
	s.mu.Lock()
	s.kpis = kpis
	s.lastError = ""
	s.mu.Unlock()
	return s.KPIs(), nil
}

// FetchKPI loads one KPI as the current selection.
func (s *Store) FetchKPI(ctx context.Context, id int64) (*KPI, error) {
	kpi, err := s.svc.Get(ctx, id)
	if err != nil {
		s.fail(msgLoadKPI, err)
		return nil, err
	}
	s.mu.Lock()
	s.current = kpi
	s.lastError = ""
	s.mu.Unlock()
	copied := *kpi
	return &copied, nil
}

// CreateKPI persists a new KPI, inserts the server's representation into
// the collection, and reconciles any fields captured while the KPI was
// still unsaved. The returned map links each pending local id to the
// persisted field id.
func (s *Store) CreateKPI(ctx context.Context, input KPIInput) (*KPI, map[uuid.UUID]int64, error) {
	kpi, err := s.svc.Create(ctx, input)
	if err != nil {
		s.fail(msgCreateKPI, err)
		return nil, nil, err
	}

	s.mu.Lock()
	s.kpis = append(s.kpis, *kpi)
	s.current = kpi
	s.lastError = ""
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	reconciled := make(map[uuid.UUID]int64, len(pending))
	for _, pf := range pending {
		field, err := s.svc.CreateField(ctx, kpi.ID, pf.Input)
		if err != nil {
			// Put the unsaved remainder back so nothing is silently lost.
			s.mu.Lock()
			s.pending = append(s.pending, pf)
			s.mu.Unlock()
			s.fail(msgSaveField, err)
			copied := *kpi
			return &copied, reconciled, err
		}
		s.mu.Lock()
		s.fields = append(s.fields, *field)
		s.mu.Unlock()
		reconciled[pf.LocalID] = field.ID
	}

	copied := *kpi
	return &copied, reconciled, nil
}

// UpdateKPI replaces the entity with the server's representation.
func (s *Store) UpdateKPI(ctx context.Context, id int64, input KPIInput) (*KPI, error) {
	kpi, err := s.svc.Update(ctx, id, input)
	if err != nil {
		s.fail(msgUpdateKPI, err)
		return nil, err
	}
	s.mu.Lock()
	for i := range s.kpis {
		if s.kpis[i].ID == id {
			s.kpis[i] = *kpi
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = kpi
	}
	s.lastError = ""
	s.mu.Unlock()
	copied := *kpi
	return &copied, nil
}

// DeleteKPI removes exactly the entity with id, leaving others untouched.
func (s *Store) DeleteKPI(ctx context.Context, id int64) error {
	if err := s.svc.Delete(ctx, id); err != nil {
		s.fail(msgDeleteKPI, err)
		return err
	}
	s.mu.Lock()
	kept := s.kpis[:0]
	for _, kpi := range s.kpis {
		if kpi.ID != id {
			kept = append(kept, kpi)
		}
	}
	s.kpis = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

// FetchFields replaces the cached field collection for the current KPI.
func (s *Store) FetchFields(ctx context.Context, kpiID int64) ([]Field, error) {
	fields, err := s.svc.Fields(ctx, kpiID)
	if err != nil {
		s.fail(msgLoadFields, err)
		return nil, err
	}
	s.mu.Lock()
	s.fields = fields
	s.lastError = ""
	s.mu.Unlock()
	return s.Fields(), nil
}

// CreateField persists a field on an existing KPI.
func (s *Store) CreateField(ctx context.Context, kpiID int64, input FieldInput) (*Field, error) {
	field, err := s.svc.CreateField(ctx, kpiID, input)
	if err != nil {
		s.fail(msgSaveField, err)
		return nil, err
	}
	s.mu.Lock()
	s.fields = append(s.fields, *field)
	s.lastError = ""
	s.mu.Unlock()
	copied := *field
	return &copied, nil
}

// UpdateField replaces a field with the server's representation.
func (s *Store) UpdateField(ctx context.Context, kpiID, fieldID int64, input FieldInput) (*Field, error) {
	field, err := s.svc.UpdateField(ctx, kpiID, fieldID, input)
	if err != nil {
		s.fail(msgSaveField, err)
		return nil, err
	}
	s.mu.Lock()
	for i := range s.fields {
		if s.fields[i].ID == fieldID {
			s.fields[i] = *field
			break
		}
	}
	s.lastError = ""
	s.mu.Unlock()
	copied := *field
	return &copied, nil
}

// DeleteField removes a field from the KPI and the cache.
func (s *Store) DeleteField(ctx context.Context, kpiID, fieldID int64) error {
	if err := s.svc.DeleteField(ctx, kpiID, fieldID); err != nil {
		s.fail(msgDeleteField, err)
		return err
	}
	s.mu.Lock()
	kept := s.fields[:0]
	for _, field := range s.fields {
		if field.ID != fieldID {
			kept = append(kept, field)
		}
	}
	s.fields = kept
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

// AddPendingField captures a field for a KPI that has not been persisted
// yet and returns its process-local id.
func (s *Store) AddPendingField(input FieldInput) uuid.UUID {
	localID := uuid.New()
	s.mu.Lock()
	s.pending = append(s.pending, PendingField{LocalID: localID, Input: input})
	s.mu.Unlock()
	return localID
}

// RemovePendingField drops a captured-but-unsaved field.
func (s *Store) RemovePendingField(localID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, pf := range s.pending {
		if pf.LocalID == localID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// PendingFields returns the fields waiting for their parent KPI.
func (s *Store) PendingFields() []PendingField {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PendingField, len(s.pending))
	copy(out, s.pending)
	return out
}

// FetchRelations replaces the cached relation collection.
func (s *Store) FetchRelations(ctx context.Context, kpiID int64) ([]Relation, error) {
	relations, err := s.svc.Relations(ctx, kpiID)
	if err != nil {
		s.fail(msgLoadRelations, err)
		return nil, err
	}
	s.mu.Lock()
	s.relations = relations
	s.lastError = ""
	s.mu.Unlock()
	return s.Relations(), nil
}

// CreateRelation persists a field relation.
func (s *Store) CreateRelation(ctx context.Context, kpiID int64, input RelationInput) (*Relation, error) {
	relation, err := s.svc.CreateRelation(ctx, kpiID, input)
	if err != nil {
		s.fail(msgSaveRelation, err)
		return nil, err
	}
	s.mu.Lock()
	s.relations = append(s.relations, *relation)
	s.lastError = ""
	s.mu.Unlock()
	copied := *relation
	return &copied, nil
}

// UpdateRelation replaces a relation with the server's representation.
func (s *Store) UpdateRelation(ctx context.Context, kpiID, relationID int64, input RelationInput) (*Relation, error) {
	relation, err := s.svc.UpdateRelation(ctx, kpiID, relationID, input)
	if err != nil {
		s.fail(msgSaveRelation, err)
		return nil, err
	}
	s.mu.Lock()
	for i := range s.relations {
		if s.relations[i].ID == relationID {
			s.relations[i] = *relation
			break
		}
	}
	s.lastError = ""
	s.mu.Unlock()
	copied := *relation
	return &copied, nil
}

// DeleteRelation removes a relation from the KPI and the cache.
func (s *Store) DeleteRelation(ctx context.Context, kpiID, relationID int64) error {
	if err := s.svc.DeleteRelation(ctx, kpiID, relationID); err != nil {
		s.fail(msgDeleteRelation, err)
		return err
	}
	s.mu.Lock()
	kept := s.relations[:0]
	for _, relation := range s.relations {
		if relation.ID != relationID {
			kept = append(kept, relation)
		}
	}
	s.relations = kept
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

// KPIs returns a copy of the cached KPI collection.
func (s *Store) KPIs() []KPI {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]KPI, len(s.kpis))
	copy(out, s.kpis)
	return out
}

// Current returns a copy of the selected KPI, or nil.
func (s *Store) Current() *KPI {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Fields returns a copy of the cached field collection.
func (s *Store) Fields() []Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Relations returns a copy of the cached relation collection.
func (s *Store) Relations() []Relation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Relation, len(s.relations))
	copy(out, s.relations)
	return out
}

// Active returns the cached KPIs flagged active.
func (s *Store) Active() []KPI {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []KPI
	for _, kpi := range s.kpis {
		if kpi.IsActive {
			active = append(active, kpi)
		}
	}
	return active
}

// Count returns the number of cached KPIs.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.kpis)
}

// HasKPIs reports whether anything is cached.
func (s *Store) HasKPIs() bool {
	return s.Count() > 0
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

// ResetCurrent drops the selected KPI and its dependent collections.
func (s *Store) ResetCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.fields = nil
	s.relations = nil
	s.pending = nil
}

func (s *Store) fail(fallback string, err error) {
	s.mu.Lock()
	s.lastError = deriveMessage(err, fallback)
	s.mu.Unlock()
	s.log.Warn().Err(err).Msg(fallback)
}

// deriveMessage prefers the backend-provided message, falling back to the
// operation's own copy.
func deriveMessage(err error, fallback string) string {
	if apiErr, ok := api.AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
