package httpapi

import (
	"net/http"

	"github.com/Lllllllleong/jobgrid/internal/auth"
	"github.com/Lllllllleong/jobgrid/internal/models"
	"github.com/Lllllllleong/jobgrid/internal/planner"
)

type PlannerHandler struct {
	Boards *planner.Boards
}

func (h PlannerHandler) board(r *http.Request) *planner.Board {
	u, _ := auth.UserFrom(r.Context())
	return h.Boards.For(u.UID)
}

func (h PlannerHandler) MarkedDays(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"markedDays": h.board(r).MarkedDays()})
}

func (h PlannerHandler) ForDay(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.board(r).ForDay(r.PathValue("day")))
}

func (h PlannerHandler) Add(w http.ResponseWriter, r *http.Request) {
	var in models.DeadlineInput
	if !decodeJSON(w, r, &in) {
		return
	}
	d, err := h.board(r).Add(r.PathValue("day"), in)
	if err != nil {
		writeServiceError(w, r, err, "Failed to add deadline")
		return
	}
	WriteJSON(w, http.StatusCreated, d)
}

func (h PlannerHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var in models.DeadlineInput
	if !decodeJSON(w, r, &in) {
		return
	}
	d, err := h.board(r).Edit(r.PathValue("day"), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err, "Failed to edit deadline")
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

func (h PlannerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.board(r).Delete(r.PathValue("day"), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "Failed to delete deadline")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h PlannerHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	d, err := h.board(r).ToggleComplete(r.PathValue("day"), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to update deadline")
		return
	}
	WriteJSON(w, http.StatusOK, d)
}
