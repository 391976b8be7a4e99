// Package httpapi is the JSON API the JobGrid clients talk to.
package httpapi

import (
	"github.com/Lllllllleong/jobgrid/internal/auth"
	"github.com/Lllllllleong/jobgrid/internal/events"
	"github.com/Lllllllleong/jobgrid/internal/notify"
	"github.com/Lllllllleong/jobgrid/internal/planner"
	"github.com/Lllllllleong/jobgrid/internal/services"
	"github.com/Lllllllleong/jobgrid/internal/upload"
)

type Deps struct {
	Jobs     *services.Jobs
	Profiles *services.Profiles
	Accounts *services.Accounts

	Auth     auth.Provider
	Uploader upload.Uploader

	Hub     *events.Hub
	Planner *planner.Boards
	Notify  *notify.Service

	// AuthLimiter throttles sign-in and registration per client. Nil disables it.
	AuthLimiter *ClientLimiter
}
