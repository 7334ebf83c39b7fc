// AngelaMos | 2026
// handler.go

package vehiclehistory

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/parkwise-dev/parkwise-backend/internal/core"
)

// Plate format is permissive on purpose: registries differ per region. The
// bound here only blocks path abuse, not legitimate plates.
var plateRe = regexp.MustCompile(`^[A-Za-z0-9 -]{2,16}$`)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/vehicles", func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/{plate}/history", h.GetHistory)
	})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	plate := chi.URLParam(r, "plate")
	if !plateRe.MatchString(plate) {
		core.BadRequest(w, "invalid plate")
		return
	}

	report, err := h.client.History(r.Context(), plate)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "vehicle history")
			return
		}
		if errors.Is(err, core.ErrExternalUnavailable) {
			core.JSONError(w, core.ExternalUnavailableError())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, report)
}
