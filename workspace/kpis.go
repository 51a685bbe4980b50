package workspace

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/barale2906/carmot-go/kpis"
	"github.com/barale2906/carmot-go/metadata"
	"github.com/barale2906/carmot-go/notifications"
)

// KPIs pairs the KPI store and the metadata lookups with the notification
// queue.
type KPIs struct {
	activity
	store    *kpis.Store
	metadata *metadata.Store
	queue    *notifications.Store
}

// NewKPIs creates the KPI facade.
func NewKPIs(store *kpis.Store, lookups *metadata.Store, queue *notifications.Store) *KPIs {
	return &KPIs{store: store, metadata: lookups, queue: queue}
}

// LoadKPIs refreshes the KPI collection.
func (k *KPIs) LoadKPIs(ctx context.Context, params url.Values) ([]kpis.KPI, bool) {
	k.begin()
	list, err := k.store.FetchKPIs(ctx, params)
	if err != nil {
		k.end(notifyError(k.queue, err, "Error Cargando KPIs"))
		return nil, false
	}
	k.end("")
	return list, true
}

// LoadKPI loads one KPI with its fields and relations, warming the lookup
// caches the editor needs.
func (k *KPIs) LoadKPI(ctx context.Context, id int64) (*kpis.KPI, bool) {
	k.begin()
	kpi, err := k.store.FetchKPI(ctx, id)
	if err != nil {
		k.end(notifyError(k.queue, err, "Error Cargando KPI"))
		return nil, false
	}
	if _, err := k.store.FetchFields(ctx, id); err != nil {
		k.end(notifyError(k.queue, err, "Error Cargando Campos"))
		return kpi, false
	}
	if _, err := k.store.FetchRelations(ctx, id); err != nil {
		k.end(notifyError(k.queue, err, "Error Cargando Relaciones"))
		return kpi, false
	}
	if kpi.ModelID != nil {
		if _, err := k.metadata.ModelFields(ctx, *kpi.ModelID); err != nil {
			k.end(notifyError(k.queue, err, "Error Cargando Metadatos"))
			return kpi, false
		}
	}
	k.end("")
	return kpi, true
}

// SaveKPI creates the KPI and reconciles any fields captured while it was
// unsaved, then notifies the outcome.
func (k *KPIs) SaveKPI(ctx context.Context, input kpis.KPIInput) (*kpis.KPI, bool) {
	k.begin()
	kpi, _, err := k.store.CreateKPI(ctx, input)
	if err != nil {
		k.end(notifyError(k.queue, err, "Error Creando KPI"))
		return kpi, false
	}
	if k.queue != nil {
		k.queue.Success("KPI Creado", "El indicador se ha creado exitosamente")
	}
	k.end("")
	return kpi, true
}

// UpdateKPI replaces an existing KPI.
func (k *KPIs) UpdateKPI(ctx context.Context, id int64, input kpis.KPIInput) (*kpis.KPI, bool) {
	k.begin()
	kpi, err := k.store.UpdateKPI(ctx, id, input)
	if err != nil {
		k.end(notifyError(k.queue, err, "Error Actualizando KPI"))
		return nil, false
	}
	if k.queue != nil {
		k.queue.Success("KPI Actualizado", "El indicador se ha actualizado exitosamente")
	}
	k.end("")
	return kpi, true
}

// RemoveKPI deletes a KPI.
func (k *KPIs) RemoveKPI(ctx context.Context, id int64) bool {
	k.begin()
	if err := k.store.DeleteKPI(ctx, id); err != nil {
		k.end(notifyError(k.queue, err, "Error Eliminando KPI"))
		return false
	}
	if k.queue != nil {
		k.queue.Success("KPI Eliminado", "El indicador se ha eliminado exitosamente")
	}
	k.end("")
	return true
}

// AddField persists a field on a saved KPI, or captures it locally when
// the KPI has no id yet.
func (k *KPIs) AddField(ctx context.Context, kpiID int64, input kpis.FieldInput) (uuid.UUID, bool) {
	if kpiID == 0 {
		return k.store.AddPendingField(input), true
	}
	k.begin()
	if _, err := k.store.CreateField(ctx, kpiID, input); err != nil {
		k.end(notifyError(k.queue, err, "Error Guardando Campo"))
		return uuid.Nil, false
	}
	k.end("")
	return uuid.Nil, true
}

// RemoveField deletes a persisted field.
func (k *KPIs) RemoveField(ctx context.Context, kpiID, fieldID int64) bool {
	k.begin()
	if err := k.store.DeleteField(ctx, kpiID, fieldID); err != nil {
		k.end(notifyError(k.queue, err, "Error Eliminando Campo"))
		return false
	}
	k.end("")
	return true
}

// AddRelation persists a field relation.
func (k *KPIs) AddRelation(ctx context.Context, kpiID int64, input kpis.RelationInput) bool {
	k.begin()
	if _, err := k.store.CreateRelation(ctx, kpiID, input); err != nil {
		k.end(notifyError(k.queue, err, "Error Guardando Relación"))
		return false
	}
	k.end("")
	return true
}

// RemoveRelation deletes a field relation.
func (k *KPIs) RemoveRelation(ctx context.Context, kpiID, relationID int64) bool {
	k.begin()
	if err := k.store.DeleteRelation(ctx, kpiID, relationID); err != nil {
		k.end(notifyError(k.queue, err, "Error Eliminando Relación"))
		return false
	}
	k.end("")
	return true
}

// Store exposes the underlying KPI store.
func (k *KPIs) Store() *kpis.Store { return k.store }

// Metadata exposes the lookup cache.
func (k *KPIs) Metadata() *metadata.Store { return k.metadata }
