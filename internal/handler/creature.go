package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sameen/creature-forge/internal/auth"
	"github.com/sameen/creature-forge/internal/service"
)

// CreatureHandler manages the authenticated collection endpoints: generate,
// list, delete. Every route it serves sits behind RequireAuth, so the
// Identity is always in the request context and every service call is scoped
// to the caller's user id.
type CreatureHandler struct {
	creatures *service.CreatureService
	logger    *slog.Logger
}

// NewCreatureHandler creates a CreatureHandler.
func NewCreatureHandler(creatures *service.CreatureService, logger *slog.Logger) *CreatureHandler {
	return &CreatureHandler{creatures: creatures, logger: logger}
}

// generateRequest is the body of POST /api/creatures.
type generateRequest struct {
	Prompt    string   `json:"prompt"`
	Animals   []string `json:"animals"`
	Abilities []string `json:"abilities"`
}

// HandleGenerate creates a new creature for the caller.
//
// HTTP: POST /api/creatures
// REQUEST BODY: {"prompt":"fiery fox","animals":["Fox"],"abilities":["Flamethrower"]}
//
// The response carries the derived image URL; the backend never fetches it.
func (h *CreatureHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "valid authentication required",
		})
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("generate: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	creature, err := h.creatures.Generate(r.Context(), ident.UserID, req.Prompt, req.Animals, req.Abilities)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, creature)
}

// HandleList returns the caller's collection.
//
// HTTP: GET /api/creatures
func (h *CreatureHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "valid authentication required",
		})
		return
	}

	creatures, err := h.creatures.ListByOwner(r.Context(), ident.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, creatures)
}

// HandleDelete removes one of the caller's creatures.
//
// HTTP: DELETE /api/creatures/{id}
//
// 404 covers both "no such id" and "not yours" — indistinguishable on
// purpose. Success is 204 with no body.
func (h *CreatureHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "valid authentication required",
		})
		return
	}

	id := r.PathValue("id")
	if err := h.creatures.Delete(r.Context(), ident.UserID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
