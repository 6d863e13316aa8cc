package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/planetarium-reservations/internal/domain"
)

func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, offset := parsePage(r)

	sessions, err := h.store.ListSessions(r.Context(), date, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": sessions})
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	detail, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req struct {
		ShowID   uuid.UUID `json:"show_id"`
		DomeID   uuid.UUID `json:"dome_id"`
		ShowTime time.Time `json:"show_time"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, &domain.FieldError{Field: "session", Message: "Malformed request body."})
		return
	}

	session, err := h.store.CreateSession(r.Context(), req.ShowID, req.DomeID, req.ShowTime)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditStaff(r, actor, "session.created", map[string]interface{}{"session_id": session.ID})
	respondJSON(w, http.StatusCreated, session)
}

func (h *Handlers) UpdateSession(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req struct {
		ShowID   uuid.UUID `json:"show_id"`
		DomeID   uuid.UUID `json:"dome_id"`
		ShowTime time.Time `json:"show_time"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, &domain.FieldError{Field: "session", Message: "Malformed request body."})
		return
	}

	session := domain.Session{ID: id, ShowID: req.ShowID, DomeID: req.DomeID, ShowTime: req.ShowTime}
	if err := h.store.UpdateSession(r.Context(), session); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditStaff(r, actor, "session.updated", map[string]interface{}{"session_id": id})
	respondJSON(w, http.StatusOK, session)
}

func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.store.DeleteSession(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditStaff(r, actor, "session.deleted", map[string]interface{}{"session_id": id})
	w.WriteHeader(http.StatusNoContent)
}
