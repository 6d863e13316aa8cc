package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/planetarium-reservations/internal/domain"
	"github.com/robertarktes/planetarium-reservations/internal/idempotency"
	"github.com/robertarktes/planetarium-reservations/internal/observability"
)

func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if existing, err := h.idemp.Get(r.Context(), key); err == nil && existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Result)
		return
	}

	var req struct {
		Tickets []domain.TicketRequest `json:"tickets"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, &domain.FieldError{Field: "tickets", Message: "Malformed request body."})
		return
	}

	res, err := h.store.CreateReservation(r.Context(), actor.UserID, req.Tickets)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	observability.ReservationsCreated.Inc()
	if h.audit != nil {
		if err := h.audit.LogReservation(r.Context(), *res); err != nil {
			h.logger.Warn("audit write failed for reservation", err)
		}
	}

	data, _ := json.Marshal(res)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)

	h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data})
}

func (h *Handlers) ListReservations(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, offset := parsePage(r)

	details, err := h.store.ListReservationsByUser(r.Context(), actor.UserID, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": details})
}

func (h *Handlers) DeleteReservation(w http.ResponseWriter, r *http.Request) {
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

	if err := h.store.DeleteReservation(r.Context(), actor.UserID, actor.IsStaff, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateTicket is the staff-only path for attaching a single ticket to an
// existing reservation.
func (h *Handlers) CreateTicket(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req struct {
		ReservationID uuid.UUID `json:"reservation_id"`
		SessionID     uuid.UUID `json:"session_id"`
		Row           int       `json:"row"`
		Seat          int       `json:"seat"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, &domain.FieldError{Field: "ticket", Message: "Malformed request body."})
		return
	}

	ticket, err := h.store.CreateTicket(r.Context(), req.ReservationID, domain.TicketRequest{
		SessionID: req.SessionID,
		Row:       req.Row,
		Seat:      req.Seat,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.auditStaff(r, actor, "ticket.created", map[string]interface{}{
		"ticket_id":      ticket.ID,
		"reservation_id": req.ReservationID,
	})
	respondJSON(w, http.StatusCreated, ticket)
}

func (h *Handlers) DeleteTicket(w http.ResponseWriter, r *http.Request) {
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

	if err := h.store.DeleteTicket(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditStaff(r, actor, "ticket.deleted", map[string]interface{}{"ticket_id": id})
	w.WriteHeader(http.StatusNoContent)
}
