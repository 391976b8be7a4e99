package httpapi

import (
	"net/http"

	"github.com/Lllllllleong/jobgrid/internal/auth"
	"github.com/Lllllllleong/jobgrid/internal/models"
	"github.com/Lllllllleong/jobgrid/internal/services"
)

type ProfilesHandler struct {
	Profiles *services.Profiles
}

func (h ProfilesHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Profiles.ListCompanies(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to load companies")
		return
	}
	WriteJSON(w, http.StatusOK, companies)
}

func (h ProfilesHandler) Company(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Profiles.Company(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to load company")
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

func (h ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	p, err := h.Profiles.Get(r.Context(), u.UID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load profile")
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h ProfilesHandler) Save(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	var patch models.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	p, err := h.Profiles.Save(r.Context(), u.UID, u.Email, patch)
	if err != nil {
		writeServiceError(w, r, err, "Failed to save profile")
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h ProfilesHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	var patch models.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	p, err := h.Profiles.Update(r.Context(), u.UID, patch)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update profile")
		return
	}
	WriteJSON(w, http.StatusOK, p)
}
