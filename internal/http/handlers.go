package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/planetarium-reservations/internal/auth"
	"github.com/robertarktes/planetarium-reservations/internal/config"
	"github.com/robertarktes/planetarium-reservations/internal/domain"
	"github.com/robertarktes/planetarium-reservations/internal/idempotency"
	"github.com/robertarktes/planetarium-reservations/internal/observability"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handlers struct {
	cfg    *config.Config
	store  Store
	audit  Auditor
	idemp  *idempotency.Idempotency
	logger observability.Logger
}

func NewHandlers(cfg *config.Config, store Store, audit Auditor, idemp *idempotency.Idempotency, logger observability.Logger) *Handlers {
	return &Handlers{
		cfg:    cfg,
		store:  store,
		audit:  audit,
		idemp:  idemp,
		logger: logger,
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError maps the domain error taxonomy onto HTTP. Validation failures
// become field-keyed 400 bodies; seat conflicts become 409 so clients can
// offer seat re-picking.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ticketErr *domain.TicketError
	if errors.As(err, &ticketErr) {
		var fieldErr *domain.FieldError
		if errors.As(ticketErr.Err, &fieldErr) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"tickets": map[string]interface{}{
					strconv.Itoa(ticketErr.Index): map[string]string{fieldErr.Field: fieldErr.Message},
				},
			})
			return
		}
		var seatErr *domain.SeatTakenError
		if errors.As(ticketErr.Err, &seatErr) {
			respondJSON(w, http.StatusConflict, map[string]interface{}{
				"detail":       seatErr.Error(),
				"ticket_index": ticketErr.Index,
				"session_id":   seatErr.SessionID,
				"row":          seatErr.Row,
				"seat":         seatErr.Seat,
			})
			return
		}
		if errors.Is(ticketErr.Err, domain.ErrNotFound) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"tickets": map[string]interface{}{
					strconv.Itoa(ticketErr.Index): map[string]string{"session_id": "Unknown session."},
				},
			})
			return
		}
		err = ticketErr.Err
	}

	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		respondJSON(w, http.StatusBadRequest, map[string]string{fieldErr.Field: fieldErr.Message})
		return
	}
	var seatErr *domain.SeatTakenError
	if errors.As(err, &seatErr) {
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"detail":     seatErr.Error(),
			"session_id": seatErr.SessionID,
			"row":        seatErr.Row,
			"seat":       seatErr.Seat,
		})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	case errors.Is(err, domain.ErrForbidden):
		respondJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
	case errors.Is(err, auth.ErrUnauthenticated):
		respondJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
	case errors.Is(err, domain.ErrSerializationFailure):
		respondJSON(w, http.StatusConflict, map[string]string{"detail": "Conflict, try again."})
	default:
		loggerFrom(r.Context(), h.logger).Error("request failed", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error."})
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(domain.ErrInvalidInput, err.Error())
	}
	return nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Wrapf(domain.ErrNotFound, "invalid id %q", raw)
	}
	return id, nil
}

// parsePage reads ?page= and ?page_size= with DRF-style defaults and returns
// limit/offset for the store.
func parsePage(r *http.Request) (limit, offset int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return size, (page - 1) * size
}

// parseDateFilter parses the optional ?date= calendar-date filter.
func parseDateFilter(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, &domain.FieldError{Field: "date", Message: "Use format YYYY-MM-DD"}
	}
	date = date.UTC()
	return &date, nil
}

// parseThemeFilter parses the optional ?themes= comma separated theme ids.
func parseThemeFilter(r *http.Request) ([]uuid.UUID, error) {
	raw := r.URL.Query().Get("themes")
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, &domain.FieldError{Field: "themes", Message: "Use comma separated UUIDs"}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func actorFrom(r *http.Request) (auth.Actor, error) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		return auth.Actor{}, auth.ErrUnauthenticated
	}
	return actor, nil
}

func (h *Handlers) auditStaff(r *http.Request, actor auth.Actor, action string, data map[string]interface{}) {
	if h.audit == nil {
		return
	}
	if err := h.audit.LogStaffAction(r.Context(), actor.UserID, action, data); err != nil {
		h.logger.Warn(fmt.Sprintf("audit write failed for %s: %v", action, err))
	}
}
