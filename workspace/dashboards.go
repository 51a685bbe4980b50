package workspace

import (
	"context"
	"net/url"

	"github.com/barale2906/carmot-go/dashboards"
	"github.com/barale2906/carmot-go/notifications"
)

// Dashboards pairs the dashboard store with the notification queue.
type Dashboards struct {
	activity
	store *dashboards.Store
	queue *notifications.Store
}

// NewDashboards creates the dashboards facade.
func NewDashboards(store *dashboards.Store, queue *notifications.Store) *Dashboards {
	return &Dashboards{store: store, queue: queue}
}

// LoadDashboards refreshes the dashboard collection.
func (d *Dashboards) LoadDashboards(ctx context.Context, params url.Values) ([]dashboards.Dashboard, bool) {
	d.begin()
	list, err := d.store.FetchDashboards(ctx, params)
	if err != nil {
		d.end(notifyError(d.queue, err, "Error Cargando Dashboards"))
		return nil, false
	}
	d.end("")
	return list, true
}

// LoadDashboard loads one dashboard and its cards.
func (d *Dashboards) LoadDashboard(ctx context.Context, id int64) (*dashboards.Dashboard, bool) {
	d.begin()
	dashboard, err := d.store.FetchDashboard(ctx, id)
	if err != nil {
		d.end(notifyError(d.queue, err, "Error Cargando Dashboard"))
		return nil, false
	}
	d.end("")
	return dashboard, true
}

// SaveDashboard creates a dashboard and notifies the outcome.
func (d *Dashboards) SaveDashboard(ctx context.Context, input dashboards.DashboardInput) (*dashboards.Dashboard, bool) {
	d.begin()
	dashboard, err := d.store.CreateDashboard(ctx, input)
	if err != nil {
		d.end(notifyError(d.queue, err, "Error Creando Dashboard"))
		return nil, false
	}
	if d.queue != nil {
		d.queue.Success("Dashboard Creado", "El dashboard se ha creado exitosamente")
	}
	d.end("")
	return dashboard, true
}

// UpdateDashboard replaces an existing dashboard.
func (d *Dashboards) UpdateDashboard(ctx context.Context, id int64, input dashboards.DashboardInput) (*dashboards.Dashboard, bool) {
	d.begin()
	dashboard, err := d.store.UpdateDashboard(ctx, id, input)
	if err != nil {
		d.end(notifyError(d.queue, err, "Error Actualizando Dashboard"))
		return nil, false
	}
	d.end("")
	return dashboard, true
}

// RemoveDashboard deletes a dashboard.
func (d *Dashboards) RemoveDashboard(ctx context.Context, id int64) bool {
	d.begin()
	if err := d.store.DeleteDashboard(ctx, id); err != nil {
		d.end(notifyError(d.queue, err, "Error Eliminando Dashboard"))
		return false
	}
	if d.queue != nil {
		d.queue.Success("Dashboard Eliminado", "El dashboard se ha eliminado exitosamente")
	}
	d.end("")
	return true
}

// AddCard persists a new card on a dashboard.
func (d *Dashboards) AddCard(ctx context.Context, input dashboards.CardInput) (*dashboards.Card, bool) {
	d.begin()
	card, err := d.store.CreateCard(ctx, input)
	if err != nil {
		d.end(notifyError(d.queue, err, "Error Guardando Tarjeta"))
		return nil, false
	}
	d.end("")
	return card, true
}

// RemoveCard deletes a card.
func (d *Dashboards) RemoveCard(ctx context.Context, id int64) bool {
	d.begin()
	if err := d.store.DeleteCard(ctx, id); err != nil {
		d.end(notifyError(d.queue, err, "Error Eliminando Tarjeta"))
		return false
	}
	d.end("")
	return true
}

// Refresh recomputes every cached card.
func (d *Dashboards) Refresh(ctx context.Context, params url.Values) ([]dashboards.CardResult, bool) {
	d.begin()
	results, err := d.store.ComputeCards(ctx, params)
	if err != nil {
		d.end(notifyError(d.queue, err, "Error Calculando Tarjetas"))
		return results, false
	}
	d.end("")
	return results, true
}

// ExportPDF renders the dashboard server-side and notifies the outcome.
func (d *Dashboards) ExportPDF(ctx context.Context, id int64) ([]byte, bool) {
	d.begin()
	pdf, err := d.store.ExportPDF(ctx, id)
	if err != nil {
		d.end(notifyError(d.queue, err, "Error Exportando PDF"))
		return nil, false
	}
	if d.queue != nil {
		d.queue.Success("PDF Generado", "El dashboard se ha exportado exitosamente")
	}
	d.end("")
	return pdf, true
}

// Store exposes the underlying dashboard store.
func (d *Dashboards) Store() *dashboards.Store { return d.store }
