package dashboards_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barale2906/carmot-go/api"
	"github.com/barale2906/carmot-go/dashboards"
)

type dashboardBackend struct {
	t *testing.T

	mu         sync.Mutex
	nextID     int64
	dashboards map[int64]map[string]any
	order      []int64
	cards      map[int64]map[string]any
	cardOrder  []int64
	failWith   int
	failBody   string
	pdfBytes   []byte
	computeHit map[int64]int
}

func newDashboardBackend(t *testing.T) *dashboardBackend {
	return &dashboardBackend{
		t:          t,
		nextID:     500,
		dashboards: map[int64]map[string]any{},
		cards:      map[int64]map[string]any{},
		pdfBytes:   []byte("%PDF-1.7 fake"),
		computeHit: map[int64]int{},
	}
}

func writeData(w http.ResponseWriter, data any) {
	payload, _ := json.Marshal(map[string]any{"success": true, "data": data})
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

func (b *dashboardBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/dashboard/dashboards", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failWith != 0 {
			w.WriteHeader(b.failWith)
			fmt.Fprint(w, b.failBody)
			return
		}
		switch r.Method {
		case http.MethodGet:
			list := []map[string]any{}
			for _, id := range b.order {
				list = append(list, b.dashboards[id])
			}
			writeData(w, list)
		case http.MethodPost:
			var input map[string]any
			require.NoError(b.t, json.NewDecoder(r.Body).Decode(&input))
			b.nextID++
			input["id"] = b.nextID
			b.dashboards[b.nextID] = input
			b.order = append(b.order, b.nextID)
			w.WriteHeader(http.StatusCreated)
			writeData(w, input)
		}
	})

	mux.HandleFunc("/dashboard/dashboards/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failWith != 0 {
			w.WriteHeader(b.failWith)
			fmt.Fprint(w, b.failBody)
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/dashboard/dashboards/")
		parts := strings.Split(rest, "/")
		var id int64
		fmt.Sscanf(parts[0], "%d", &id)

		if len(parts) >= 2 && parts[1] == "export-pdf" {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(b.pdfBytes)
			return
		}
		if len(parts) >= 2 && parts[1] == "cards" {
			list := []map[string]any{}
			for _, cardID := range b.cardOrder {
				card := b.cards[cardID]
				if card["dashboard_id"] == float64(id) || card["dashboard_id"] == id {
					list = append(list, card)
				}
			}
			writeData(w, list)
			return
		}

		switch r.Method {
		case http.MethodGet:
			dashboard, ok := b.dashboards[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeData(w, dashboard)
		case http.MethodPut:
			var input map[string]any
			require.NoError(b.t, json.NewDecoder(r.Body).Decode(&input))
			input["id"] = id
			b.dashboards[id] = input
			writeData(w, input)
		case http.MethodDelete:
			delete(b.dashboards, id)
			for i, existing := range b.order {
				if existing == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
			writeData(w, map[string]any{"deleted": true})
		}
	})

	mux.HandleFunc("/dashboard/dashboard-cards", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failWith != 0 {
			w.WriteHeader(b.failWith)
			fmt.Fprint(w, b.failBody)
			return
		}
		var input map[string]any
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&input))
		b.nextID++
		input["id"] = b.nextID
		b.cards[b.nextID] = input
		b.cardOrder = append(b.cardOrder, b.nextID)
		w.WriteHeader(http.StatusCreated)
		writeData(w, input)
	})

	mux.HandleFunc("/dashboard/dashboard-cards/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failWith != 0 {
			w.WriteHeader(b.failWith)
			fmt.Fprint(w, b.failBody)
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/dashboard/dashboard-cards/")
		parts := strings.Split(rest, "/")
		var id int64
		fmt.Sscanf(parts[0], "%d", &id)

		if len(parts) >= 2 && parts[1] == "compute" {
			b.computeHit[id]++
			writeData(w, map[string]any{
				"labels": []string{"Ene"},
				"series": []float64{float64(id)},
			})
			return
		}

		switch r.Method {
		case http.MethodPut:
			var input map[string]any
			require.NoError(b.t, json.NewDecoder(r.Body).Decode(&input))
			input["id"] = id
			b.cards[id] = input
			writeData(w, input)
		case http.MethodDelete:
			delete(b.cards, id)
			for i, existing := range b.cardOrder {
				if existing == id {
					b.cardOrder = append(b.cardOrder[:i], b.cardOrder[i+1:]...)
					break
				}
			}
			writeData(w, map[string]any{"deleted": true})
		}
	})

	return mux
}

func newDashboardFixture(t *testing.T) (*dashboards.Store, *dashboardBackend) {
	backend := newDashboardBackend(t)
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{
		BaseURL:     srv.URL,
		Credentials: api.NewMemoryCredentials(),
	})
	require.NoError(t, err)

	return dashboards.NewStore(dashboards.NewService(client), nil), backend
}

func TestStore_CreateAndListDashboards(t *testing.T) {
	store, _ := newDashboardFixture(t)
	ctx := context.Background()

	created, err := store.CreateDashboard(ctx, dashboards.DashboardInput{Name: "Ventas mensuales", IsActive: true})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	cached := store.Dashboards()
	require.Len(t, cached, 1)
	require.Equal(t, *created, cached[0])
	require.Equal(t, created, store.Current())
}

func TestStore_DeleteDashboardClearsCurrentAndCards(t *testing.T) {
	store, _ := newDashboardFixture(t)
	ctx := context.Background()

	created, err := store.CreateDashboard(ctx, dashboards.DashboardInput{Name: "Ventas"})
	require.NoError(t, err)
	_, err = store.CreateCard(ctx, dashboards.CardInput{DashboardID: created.ID, KPIID: 7, Position: 1, Width: 6})
	require.NoError(t, err)
	require.Len(t, store.Cards(), 1)

	require.NoError(t, store.DeleteDashboard(ctx, created.ID))
	require.Zero(t, store.Count())
	require.Nil(t, store.Current())
	require.Empty(t, store.Cards())
}

func TestStore_FailedUpdateLeavesCacheUntouched(t *testing.T) {
	store, backend := newDashboardFixture(t)
	ctx := context.Background()

	created, err := store.CreateDashboard(ctx, dashboards.DashboardInput{Name: "Ventas"})
	require.NoError(t, err)

	backend.mu.Lock()
	backend.failWith = http.StatusUnprocessableEntity
	backend.failBody = `{"message":"El nombre es obligatorio."}`
	backend.mu.Unlock()

	_, err = store.UpdateDashboard(ctx, created.ID, dashboards.DashboardInput{Name: ""})
	require.Error(t, err)
	require.Equal(t, "El nombre es obligatorio.", store.LastError())

	cached := store.Dashboards()
	require.Len(t, cached, 1)
	require.Equal(t, "Ventas", cached[0].Name)
}

func TestStore_FetchDashboardLoadsCards(t *testing.T) {
	store, _ := newDashboardFixture(t)
	ctx := context.Background()

	created, err := store.CreateDashboard(ctx, dashboards.DashboardInput{Name: "Ventas"})
	require.NoError(t, err)
	_, err = store.CreateCard(ctx, dashboards.CardInput{DashboardID: created.ID, KPIID: 7, Position: 1, Width: 6})
	require.NoError(t, err)
	_, err = store.CreateCard(ctx, dashboards.CardInput{DashboardID: created.ID, KPIID: 9, Position: 2, Width: 6})
	require.NoError(t, err)

	fetched, err := store.FetchDashboard(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Len(t, store.Cards(), 2)
}

func TestStore_ComputeCardsWalksInOrder(t *testing.T) {
	store, backend := newDashboardFixture(t)
	ctx := context.Background()

	created, err := store.CreateDashboard(ctx, dashboards.DashboardInput{Name: "Ventas"})
	require.NoError(t, err)
	first, err := store.CreateCard(ctx, dashboards.CardInput{DashboardID: created.ID, KPIID: 7, Position: 1, Width: 6})
	require.NoError(t, err)
	second, err := store.CreateCard(ctx, dashboards.CardInput{DashboardID: created.ID, KPIID: 9, Position: 2, Width: 6})
	require.NoError(t, err)

	results, err := store.ComputeCards(ctx, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, first.ID, results[0].Card.ID)
	require.Equal(t, second.ID, results[1].Card.ID)
	require.Equal(t, []float64{float64(first.ID)}, results[0].Data.Series)

	backend.mu.Lock()
	require.Equal(t, 1, backend.computeHit[first.ID])
	require.Equal(t, 1, backend.computeHit[second.ID])
	backend.mu.Unlock()
}

func TestStore_ExportPDFReturnsRawBytes(t *testing.T) {
	store, backend := newDashboardFixture(t)
	ctx := context.Background()

	created, err := store.CreateDashboard(ctx, dashboards.DashboardInput{Name: "Ventas"})
	require.NoError(t, err)

	pdf, err := store.ExportPDF(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, backend.pdfBytes, pdf)
}

func TestStore_DeleteCardRemovesOnlyThatCard(t *testing.T) {
	store, _ := newDashboardFixture(t)
	ctx := context.Background()

	created, err := store.CreateDashboard(ctx, dashboards.DashboardInput{Name: "Ventas"})
	require.NoError(t, err)
	first, err := store.CreateCard(ctx, dashboards.CardInput{DashboardID: created.ID, KPIID: 7, Position: 1, Width: 6})
	require.NoError(t, err)
	second, err := store.CreateCard(ctx, dashboards.CardInput{DashboardID: created.ID, KPIID: 9, Position: 2, Width: 6})
	require.NoError(t, err)

	require.NoError(t, store.DeleteCard(ctx, first.ID))

	cards := store.Cards()
	require.Len(t, cards, 1)
	require.Equal(t, second.ID, cards[0].ID)
}
