package notifications

import (
	"fmt"
	"strings"

	"github.com/barale2906/carmot-go/api"
	"github.com/barale2906/carmot-go/internal/utils"
)

// User-facing copy per failure class. This table is the only place API
// statuses become display strings; the api package itself only classifies.
const (
	fallbackTitle   = "Error"
	fallbackMessage = "Ha ocurrido un error inesperado"

	networkTitle   = "Error de Conexión"
	networkMessage = "No se pudo conectar con el servidor. Verifica tu conexión a internet."

	sessionExpiredMessage = "Tu sesión ha expirado. Por favor, inicia sesión nuevamente."
)

// FromError derives the (title, message) pair for a failed operation. The
// backend's top-level message always wins; validation failures with no
// top-level message surface the field errors joined into one string.
func FromError(err error, defaultTitle string) (string, string) {
	if defaultTitle == "" {
		defaultTitle = fallbackTitle
	}

	apiErr, ok := api.AsError(err)
	if !ok {
		message := fallbackMessage
		if err != nil {
			message = err.Error()
		}
		return defaultTitle, message
	}

	switch apiErr.Kind {
	case api.KindNetwork:
		return networkTitle, networkMessage
	case api.KindAuth:
		return "No Autorizado", sessionExpiredMessage
	case api.KindPermission:
		return "Acceso Denegado", withBackendMessage(apiErr, "No tienes permisos para realizar esta acción")
	case api.KindNotFound:
		return "No Encontrado", withBackendMessage(apiErr, "El recurso solicitado no existe")
	case api.KindValidation:
		return "Error de Validación", validationMessage(apiErr)
	case api.KindServer:
		return "Error del Servidor", withBackendMessage(apiErr, "Ha ocurrido un error interno del servidor")
	default:
		title := defaultTitle
		if apiErr.Status != 0 {
			title = fmt.Sprintf("Error %d", apiErr.Status)
		}
		return title, withBackendMessage(apiErr, fallbackMessage)
	}
}

// PushError queues a persistent error notification derived from err.
func (s *Store) PushError(err error, defaultTitle string) string {
	title, message := FromError(err, defaultTitle)
	return s.Error(title, message)
}

func withBackendMessage(apiErr *api.Error, fallback string) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// validationMessage prefers the top-level message; absent that it joins the
// field-level messages into one display string.
func validationMessage(apiErr *api.Error) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}
	if len(apiErr.Fields) > 0 {
		return strings.Join(utils.FlattenSorted(apiErr.Fields), ", ")
	}
	return "Los datos enviados no son válidos"
}
