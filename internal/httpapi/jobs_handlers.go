package httpapi

import (
	"net/http"

	"github.com/Lllllllleong/jobgrid/internal/auth"
	"github.com/Lllllllleong/jobgrid/internal/events"
	"github.com/Lllllllleong/jobgrid/internal/models"
	"github.com/Lllllllleong/jobgrid/internal/services"
)

type JobsHandler struct {
	Jobs *services.Jobs
	Hub  *events.Hub
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobs, err := h.Jobs.ListWithCompany(r.Context(), models.JobFilter{
		CompanyID: q.Get("companyId"),
		Query:     q.Get("q"),
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to load jobs")
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}

func (h JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.GetWithCompany(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load job details")
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

func (h JobsHandler) Share(w http.ResponseWriter, r *http.Request) {
	link, err := h.Jobs.ShareLink(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to generate QR code")
		return
	}
	WriteJSON(w, http.StatusOK, link)
}

func (h JobsHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	jobs, err := h.Jobs.List(r.Context(), models.JobFilter{CompanyID: u.UID, Query: r.URL.Query().Get("q")})
	if err != nil {
		writeServiceError(w, r, err, "Failed to load jobs")
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}

func (h JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	var in models.JobInput
	if !decodeJSON(w, r, &in) {
		return
	}
	job, err := h.Jobs.Create(r.Context(), u.UID, in)
	if err != nil {
		writeServiceError(w, r, err, "Failed to post your job")
		return
	}
	h.publish(r, events.TypeJobCreated, job)
	WriteJSON(w, http.StatusCreated, job)
}

func (h JobsHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	var patch models.JobPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	job, err := h.Jobs.Update(r.Context(), u.UID, r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update job")
		return
	}
	h.publish(r, events.TypeJobUpdated, job)
	WriteJSON(w, http.StatusOK, job)
}

func (h JobsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	id := r.PathValue("id")
	if err := h.Jobs.Delete(r.Context(), u.UID, id); err != nil {
		writeServiceError(w, r, err, "Failed to delete job")
		return
	}
	h.publish(r, events.TypeJobDeleted, map[string]any{"id": id, "companyId": u.UID})
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (h JobsHandler) publish(r *http.Request, typ string, data any) {
	if h.Hub == nil {
		return
	}
	h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), typ, 1, data))
}
