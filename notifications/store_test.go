package notifications

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/barale2906/carmot-go/api"
)

// newTestStore returns a store with a controllable clock.
func newTestStore(start time.Time) (*Store, *time.Time) {
	now := start
	s := NewStore()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestStore_NewestFirstAndBounded(t *testing.T) {
	s, _ := newTestStore(time.Now())

	for i := 0; i < 7; i++ {
		s.Info("Aviso", string(rune('a'+i)))
	}

	active := s.Active()
	require.Len(t, active, 5, "queue is bounded at five")
	require.Equal(t, "g", active[0].Message, "newest entry first")
	require.Equal(t, "c", active[4].Message, "oldest surviving entry last")
}

func TestStore_NonPersistentEntriesExpire(t *testing.T) {
	s, now := newTestStore(time.Now())

	s.Info("Aviso", "temporal")
	s.Error("Error", "persistente")

	*now = now.Add(6 * time.Second)
	active := s.Active()
	require.Len(t, active, 1)
	require.Equal(t, LevelError, active[0].Level, "errors persist by default")
}

func TestStore_DismissAndClear(t *testing.T) {
	s, _ := newTestStore(time.Now())

	id := s.Warning("Atención", "algo")
	s.Success("Listo", "otra cosa")

	s.Dismiss(id)
	active := s.Active()
	require.Len(t, active, 1)
	require.Equal(t, LevelSuccess, active[0].Level)

	s.Clear()
	require.Empty(t, s.Active())
}

func TestFromError_TopLevelMessageWinsOverFieldErrors(t *testing.T) {
	err := statusErr(http.StatusUnprocessableEntity, "El tipo de cálculo es obligatorio.", map[string][]string{
		"calculation_type": {"El tipo de cálculo es obligatorio."},
	})

	title, message := FromError(err, "Error Creando KPI")
	require.Equal(t, "Error de Validación", title)
	require.Equal(t, "El tipo de cálculo es obligatorio.", message)
}

func TestFromError_FieldErrorsJoinedWhenNoTopLevelMessage(t *testing.T) {
	err := statusErr(http.StatusUnprocessableEntity, "", map[string][]string{
		"name": {"El nombre es obligatorio."},
		"code": {"El código ya existe."},
	})

	_, message := FromError(err, "")
	require.Equal(t, "El código ya existe., El nombre es obligatorio.", message)
}

func TestFromError_PerKindCopy(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		wantTitle string
	}{
		{"permission", statusErr(http.StatusForbidden, "", nil), "Acceso Denegado"},
		{"not found", statusErr(http.StatusNotFound, "", nil), "No Encontrado"},
		{"server", statusErr(http.StatusInternalServerError, "", nil), "Error del Servidor"},
		{"auth", statusErr(http.StatusUnauthorized, "", nil), "No Autorizado"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			title, message := FromError(tc.err, "")
			require.Equal(t, tc.wantTitle, title)
			require.NotEmpty(t, message)
		})
	}
}

func TestFromError_NetworkFailure(t *testing.T) {
	err := networkErr()
	title, message := FromError(err, "")
	require.Equal(t, "Error de Conexión", title)
	require.Contains(t, message, "conexión a internet")
}

func TestFromError_PlainError(t *testing.T) {
	title, message := FromError(errors.New("algo raro"), "Error con Campo")
	require.Equal(t, "Error con Campo", title)
	require.Equal(t, "algo raro", message)
}

func TestStore_PushErrorQueuesPersistentEntry(t *testing.T) {
	s, now := newTestStore(time.Now())

	s.PushError(statusErr(http.StatusInternalServerError, "", nil), "Error Cargando Metadatos")

	*now = now.Add(time.Minute)
	active := s.Active()
	require.Len(t, active, 1, "API errors stay until dismissed")
	require.Equal(t, "Error del Servidor", active[0].Title)
}

// statusErr builds an *api.Error the way the client would classify it.
func statusErr(status int, message string, fields map[string][]string) error {
	return api.NewStatusError(status, message, fields)
}

func networkErr() error {
	return api.NewNetworkError(errors.New("dial tcp: connection refused"))
}
