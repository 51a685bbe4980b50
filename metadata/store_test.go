package metadata_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barale2906/carmot-go/api"
	"github.com/barale2906/carmot-go/metadata"
)

type lookupBackend struct {
	mu   sync.Mutex
	hits map[string]int
	fail bool
}

func (b *lookupBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.URL.Path]++
		failing := b.fail
		b.mu.Unlock()

		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		var data any
		switch r.URL.Path {
		case "/dashboard/kpi-metadata/models":
			data = []map[string]any{{"id": 1, "name": "sales", "label": "Ventas"}}
		case "/dashboard/kpi-metadata/models/1/fields":
			data = []map[string]any{{"id": 10, "model_id": 1, "name": "amount", "label": "Monto", "type": "decimal"}}
		case "/dashboard/chart-types":
			data = []map[string]any{{"value": "bar", "label": "Barras"}, {"value": "line", "label": "Líneas"}}
		case "/dashboard/chart-types/bar/parameters":
			data = []map[string]any{{"name": "stacked", "label": "Apilado", "type": "boolean", "required": false}}
		case "/dashboard/models/1/group-by-fields":
			data = []map[string]any{{"field": "month", "label": "Mes"}}
		case "/dashboard/filter-types":
			data = []map[string]any{{"value": "equals", "label": "Igual a"}}
		case "/dashboard/field-relations/operations":
			data = []map[string]any{{"value": "divide", "label": "División"}}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}

		payload, _ := json.Marshal(map[string]any{"success": true, "data": data})
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	})
}

func (b *lookupBackend) hitCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func newMetadataFixture(t *testing.T) (*metadata.Store, *lookupBackend) {
	backend := &lookupBackend{hits: map[string]int{}}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{
		BaseURL:     srv.URL,
		Credentials: api.NewMemoryCredentials(),
	})
	require.NoError(t, err)

	return metadata.NewStore(metadata.NewService(client), nil), backend
}

func TestStore_ModelsFetchOnceThenServeFromCache(t *testing.T) {
	store, backend := newMetadataFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		models, err := store.Models(ctx)
		require.NoError(t, err)
		require.Len(t, models, 1)
		require.Equal(t, "Ventas", models[0].Label)
	}
	require.Equal(t, 1, backend.hitCount("/dashboard/kpi-metadata/models"))
}

func TestStore_ModelFieldsCachedPerModel(t *testing.T) {
	store, backend := newMetadataFixture(t)
	ctx := context.Background()

	fields, err := store.ModelFields(ctx, 1)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	require.Equal(t, "decimal", fields[0].Type)

	_, err = store.ModelFields(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, backend.hitCount("/dashboard/kpi-metadata/models/1/fields"))
}

func TestStore_ChartParametersCachedPerType(t *testing.T) {
	store, backend := newMetadataFixture(t)
	ctx := context.Background()

	params, err := store.ChartTypeParameters(ctx, "bar")
	require.NoError(t, err)
	require.Len(t, params, 1)
	require.Equal(t, "stacked", params[0].Name)

	_, err = store.ChartTypeParameters(ctx, "bar")
	require.NoError(t, err)
	require.Equal(t, 1, backend.hitCount("/dashboard/chart-types/bar/parameters"))
}

func TestStore_FailureDoesNotPoisonCache(t *testing.T) {
	store, backend := newMetadataFixture(t)
	ctx := context.Background()

	backend.mu.Lock()
	backend.fail = true
	backend.mu.Unlock()

	_, err := store.Models(ctx)
	require.Error(t, err)
	require.Equal(t, "Error cargando modelos", store.LastError())

	backend.mu.Lock()
	backend.fail = false
	backend.mu.Unlock()

	models, err := store.Models(ctx)
	require.NoError(t, err)
	require.Len(t, models, 1)
	require.Empty(t, store.LastError())
	require.Equal(t, 2, backend.hitCount("/dashboard/kpi-metadata/models"))
}

func TestStore_InvalidateForcesRefetch(t *testing.T) {
	store, backend := newMetadataFixture(t)
	ctx := context.Background()

	_, err := store.ChartTypes(ctx)
	require.NoError(t, err)
	_, err = store.FieldOperations(ctx)
	require.NoError(t, err)

	store.Invalidate()

	_, err = store.ChartTypes(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, backend.hitCount("/dashboard/chart-types"))
}

func TestStore_LookupCollections(t *testing.T) {
	store, _ := newMetadataFixture(t)
	ctx := context.Background()

	filters, err := store.FilterTypes(ctx)
	require.NoError(t, err)
	require.Equal(t, "equals", filters[0].Value)

	ops, err := store.FieldOperations(ctx)
	require.NoError(t, err)
	require.Equal(t, "División", ops[0].Label)

	groups, err := store.GroupByFields(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "month", groups[0].Field)
}
