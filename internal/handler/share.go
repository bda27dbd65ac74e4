package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sameen/creature-forge/internal/auth"
	"github.com/sameen/creature-forge/internal/service"
)

// ShareHandler manages share links. Creating a share requires
// authentication and ownership of the source creature; resolving one is
// fully public — the share id IS the capability.
type ShareHandler struct {
	creatures   *service.CreatureService
	frontendURL string
	logger      *slog.Logger
}

// NewShareHandler creates a ShareHandler. frontendURL is used to build the
// absolute share link returned to the client.
func NewShareHandler(creatures *service.CreatureService, frontendURL string, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		creatures:   creatures,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// shareRequest is the body of POST /api/shares.
type shareRequest struct {
	CreatureID string `json:"creatureId"`
}

// shareResponse is what a successful share returns. The shareUrl points at
// the frontend's share page, which in turn resolves the snapshot via
// GET /api/shares/{shareId}.
type shareResponse struct {
	ShareID  string `json:"shareId"`
	ShareURL string `json:"shareUrl"`
}

// HandleCreate snapshots one of the caller's creatures into a public share.
//
// HTTP: POST /api/shares
// REQUEST BODY: {"creatureId": "d0v4..."}
//
// Sharing a creature you don't own is a 404, same as a missing id.
func (h *ShareHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "valid authentication required",
		})
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("share: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	share, err := h.creatures.Share(r.Context(), ident.UserID, req.CreatureID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, shareResponse{
		ShareID:  share.ShareID,
		ShareURL: h.frontendURL + "/share/" + share.ShareID,
	})
}

// HandleResolve returns a shared snapshot. Public — no cookie, no gate.
//
// HTTP: GET /api/shares/{shareId}
//
// The snapshot is whatever the creature looked like at share time; whether
// the source still exists is irrelevant.
func (h *ShareHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	share, err := h.creatures.ResolveShare(r.Context(), r.PathValue("shareId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, share)
}
