package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/planetarium-reservations/internal/domain"
)

func (h *Handlers) CreateTheme(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		h.writeError(w, r, &domain.FieldError{Field: "name", Message: "This field may not be blank."})
		return
	}

	theme, err := h.store.CreateTheme(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditStaff(r, actor, "theme.created", map[string]interface{}{"theme_id": theme.ID})
	respondJSON(w, http.StatusCreated, theme)
}

func (h *Handlers) ListThemes(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	themes, err := h.store.ListThemes(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": themes})
}

func (h *Handlers) GetTheme(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	theme, err := h.store.GetTheme(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, theme)
}

func (h *Handlers) UpdateTheme(w http.ResponseWriter, r *http.Request) {
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
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		h.writeError(w, r, &domain.FieldError{Field: "name", Message: "This field may not be blank."})
		return
	}

	theme, err := h.store.UpdateTheme(r.Context(), id, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditStaff(r, actor, "theme.updated", map[string]interface{}{"theme_id": theme.ID})
	respondJSON(w, http.StatusOK, theme)
}

func (h *Handlers) DeleteTheme(w http.ResponseWriter, r *http.Request) {
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
	if err := h.store.DeleteTheme(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditStaff(r, actor, "theme.deleted", map[string]interface{}{"theme_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CreateShow(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req struct {
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Themes      []uuid.UUID `json:"themes"`
	}
	if err := decodeBody(r, &req); err != nil || req.Title == "" {
		h.writeError(w, r, &domain.FieldError{Field: "title", Message: "This field may not be blank."})
		return
	}

	show, err := h.store.CreateShow(r.Context(), req.Title, req.Description, req.Themes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditStaff(r, actor, "show.created", map[string]interface{}{"show_id": show.ID})
	respondJSON(w, http.StatusCreated, show)
}

func (h *Handlers) UpdateShow(w http.ResponseWriter, r *http.Request) {
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
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Themes      []uuid.UUID `json:"themes"`
	}
	if err := decodeBody(r, &req); err != nil || req.Title == "" {
		h.writeError(w, r, &domain.FieldError{Field: "title", Message: "This field may not be blank."})
		return
	}

	show, err := h.store.UpdateShow(r.Context(), id, req.Title, req.Description, req.Themes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditStaff(r, actor, "show.updated", map[string]interface{}{"show_id": show.ID})
	respondJSON(w, http.StatusOK, show)
}

func (h *Handlers) DeleteShow(w http.ResponseWriter, r *http.Request) {
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
	if err := h.store.DeleteShow(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditStaff(r, actor, "show.deleted", map[string]interface{}{"show_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListShows(w http.ResponseWriter, r *http.Request) {
	themeIDs, err := parseThemeFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, offset := parsePage(r)

	shows, err := h.store.ListShows(r.Context(), themeIDs, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": shows})
}

func (h *Handlers) GetShow(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	show, err := h.store.GetShow(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, show)
}

func (h *Handlers) CreateDome(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req struct {
		Name       string `json:"name"`
		Rows       int    `json:"rows"`
		SeatsInRow int    `json:"seats_in_row"`
	}
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		h.writeError(w, r, &domain.FieldError{Field: "name", Message: "This field may not be blank."})
		return
	}

	dome, err := h.store.CreateDome(r.Context(), req.Name, req.Rows, req.SeatsInRow)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditStaff(r, actor, "dome.created", map[string]interface{}{"dome_id": dome.ID})
	respondJSON(w, http.StatusCreated, dome)
}

func (h *Handlers) ListDomes(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	domes, err := h.store.ListDomes(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": domes})
}

func (h *Handlers) GetDome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dome, err := h.store.GetDome(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dome)
}
