package httpapi

import (
	"net/http"
	"strings"

	"github.com/Lllllllleong/jobgrid/internal/notify"
)

type NotificationsHandler struct {
	Notify *notify.Service
}

func (h NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Notify.ScheduledNotifications(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to load notifications")
		return
	}
	WriteJSON(w, http.StatusOK, pending)
}

// Respond delivers a notification tap reported by the client to the
// registered response listeners.
func (h NotificationsHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var resp notify.Response
	if !decodeJSON(w, r, &resp) {
		return
	}
	if strings.TrimSpace(resp.NotificationID) == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", "notificationId is required")
		return
	}
	h.Notify.HandleResponse(resp)
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
