package httpapi

import "net/http"

// NewHandler builds the full API: routes plus the middleware chain.
func NewHandler(d Deps) http.Handler {
	return Chain(NewMux(d), RequestID, Recover, AccessLog, Cors)
}

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	authed := RequireUser(d.Auth)
	limited := RateLimit(d.AuthLimiter)

	private := func(h http.HandlerFunc) http.Handler { return authed(h) }

	mux.HandleFunc("GET /health", Health)

	// Auth
	ah := AuthHandler{Accounts: d.Accounts}
	mux.Handle("POST /auth/register", limited(http.HandlerFunc(ah.Register)))
	mux.Handle("POST /auth/login", limited(http.HandlerFunc(ah.Login)))
	mux.Handle("POST /auth/logout", private(ah.Logout))
	mux.Handle("DELETE /auth/account", private(ah.DeleteAccount))
	mux.Handle("GET /me", private(ah.Me))

	// Public job browsing
	jh := JobsHandler{Jobs: d.Jobs, Hub: d.Hub}
	mux.HandleFunc("GET /jobs", jh.List)
	mux.HandleFunc("GET /jobs/{id}", jh.Get)
	mux.HandleFunc("GET /jobs/{id}/share", jh.Share)

	// Company dashboard
	mux.Handle("GET /dashboard/jobs", private(jh.ListOwn))
	mux.Handle("POST /dashboard/jobs", private(jh.Create))
	mux.Handle("PATCH /dashboard/jobs/{id}", private(jh.Update))
	mux.Handle("DELETE /dashboard/jobs/{id}", private(jh.Delete))

	// Companies and profiles
	ph := ProfilesHandler{Profiles: d.Profiles}
	mux.HandleFunc("GET /companies", ph.ListCompanies)
	mux.HandleFunc("GET /companies/{id}", ph.Company)
	mux.Handle("GET /profile", private(ph.Get))
	mux.Handle("PUT /profile", private(ph.Save))
	mux.Handle("PATCH /profile", private(ph.Update))

	uh := UploadsHandler{Uploader: d.Uploader}
	mux.Handle("POST /uploads", private(uh.Create))

	// Deadline planner
	plh := PlannerHandler{Boards: d.Planner}
	mux.Handle("GET /planner", private(plh.MarkedDays))
	mux.Handle("GET /planner/{day}", private(plh.ForDay))
	mux.Handle("POST /planner/{day}", private(plh.Add))
	mux.Handle("PATCH /planner/{day}/{id}", private(plh.Edit))
	mux.Handle("DELETE /planner/{day}/{id}", private(plh.Delete))
	mux.Handle("POST /planner/{day}/{id}/toggle", private(plh.Toggle))

	nh := NotificationsHandler{Notify: d.Notify}
	mux.Handle("GET /notifications", private(nh.List))
	mux.Handle("POST /notifications/responses", private(nh.Respond))

	// SSE job feed
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("GET /events", eh.ServeSSE)

	return mux
}
