package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Lllllllleong/jobgrid/internal/auth"
	"github.com/Lllllllleong/jobgrid/internal/events"
	"github.com/Lllllllleong/jobgrid/internal/models"
	"github.com/Lllllllleong/jobgrid/internal/notify"
	"github.com/Lllllllleong/jobgrid/internal/planner"
	"github.com/Lllllllleong/jobgrid/internal/services"
	"github.com/Lllllllleong/jobgrid/internal/store"
	"github.com/Lllllllleong/jobgrid/internal/upload"
)

// fakeAuth accepts any password and issues "tok-<uid>" tokens.
type fakeAuth struct{}

func (fakeAuth) session(email string) *models.Session {
	uid := strings.SplitN(email, "@", 2)[0]
	return &models.Session{UID: uid, Email: email, IDToken: "tok-" + uid}
}

func (f fakeAuth) SignIn(_ context.Context, email, _ string) (*models.Session, error) {
	return f.session(email), nil
}

func (f fakeAuth) Register(_ context.Context, email, _ string) (*models.Session, error) {
	return f.session(email), nil
}

func (fakeAuth) SignOut(context.Context, string) error { return nil }

func (fakeAuth) Verify(_ context.Context, token string) (*auth.User, error) {
	uid, ok := strings.CutPrefix(token, "tok-")
	if !ok || uid == "" {
		return nil, auth.ErrUnauthenticated
	}
	return &auth.User{UID: uid, Email: uid + "@example.com"}, nil
}

type fakeUploader struct {
	mu    sync.Mutex
	names []string
}

func (u *fakeUploader) Upload(_ context.Context, name string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	u.mu.Lock()
	u.names = append(u.names, name)
	u.mu.Unlock()
	return "https://res.example.com/" + name, nil
}

func (u *fakeUploader) uploaded() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.names...)
}

type testAPI struct {
	handler http.Handler
	hub     *events.Hub
	up      *fakeUploader
	notify  *notify.Service
}

func newTestAPI(t *testing.T, limiter *ClientLimiter) *testAPI {
	t.Helper()
	st, err := store.OpenSQLite(":memory:", "users", "jobs")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	up := &fakeUploader{}
	images := upload.NewResolver(up, nil)
	profiles := services.NewProfiles(st, st, images)
	hub := events.NewHub()
	n := notify.New(notify.LogPlatform{})
	d := Deps{
		Jobs:        services.NewJobs(st, st, images),
		Profiles:    profiles,
		Accounts:    services.NewAccounts(fakeAuth{}, profiles),
		Auth:        fakeAuth{},
		Uploader:    up,
		Hub:         hub,
		Planner:     planner.NewBoards(),
		Notify:      n,
		AuthLimiter: limiter,
	}
	return &testAPI{handler: NewHandler(d), hub: hub, up: up, notify: n}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v (body %q)", v, err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t, nil)
	for _, path := range []string{"/me", "/profile", "/dashboard/jobs", "/planner"} {
		rec := api.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", path, rec.Code)
		}
		e := decode[APIError](t, rec)
		if e.Error.Code != "unauthenticated" || e.Error.RequestID == "" {
			t.Fatalf("%s error = %+v", path, e.Error)
		}
	}
	if rec := api.do(t, http.MethodGet, "/me", "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", rec.Code)
	}
}

func TestRegisterCreatesProfile(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodPost, "/auth/register", "", models.RegisterRequest{
		Email: "acme@example.com", Password: "pw", CompanyName: "Acme",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body)
	}

	rec = api.do(t, http.MethodGet, "/profile", "tok-acme", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d", rec.Code)
	}
	if p := decode[models.Profile](t, rec); p.CompanyName != "Acme" {
		t.Fatalf("profile = %+v", p)
	}

	rec = api.do(t, http.MethodPost, "/auth/register", "", models.RegisterRequest{Email: "x@example.com", Password: "pw"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing company status = %d", rec.Code)
	}
}

func TestJobLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	feed := api.hub.Subscribe()
	defer api.hub.Unsubscribe(feed)

	rec := api.do(t, http.MethodPost, "/dashboard/jobs", "tok-acme", models.JobInput{
		Title: "Go Developer", Description: "APIs", Location: "Colombo",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	job := decode[models.Job](t, rec)

	select {
	case msg := <-feed:
		if !strings.Contains(msg, events.TypeJobCreated) {
			t.Fatalf("event = %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no job.created event")
	}

	rec = api.do(t, http.MethodGet, "/jobs?q=colombo", "", nil)
	if list := decode[[]models.JobView](t, rec); len(list) != 1 || list[0].ID != job.ID {
		t.Fatalf("browse = %+v", list)
	}
	if rec := api.do(t, http.MethodGet, "/jobs/"+job.ID, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/jobs/"+job.ID+"/share", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("share status = %d", rec.Code)
	}

	title := "Hijacked"
	if rec := api.do(t, http.MethodPatch, "/dashboard/jobs/"+job.ID, "tok-other", models.JobPatch{Title: &title}); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign patch status = %d", rec.Code)
	}

	salary := "Negotiable"
	rec = api.do(t, http.MethodPatch, "/dashboard/jobs/"+job.ID, "tok-acme", models.JobPatch{Salary: &salary})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d", rec.Code)
	}
	if got := decode[models.Job](t, rec); got.Salary != "Negotiable" || got.Title != "Go Developer" {
		t.Fatalf("patched = %+v", got)
	}

	if rec := api.do(t, http.MethodDelete, "/dashboard/jobs/"+job.ID, "tok-acme", nil); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/jobs/"+job.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted detail status = %d", rec.Code)
	}
	rec = api.do(t, http.MethodGet, "/dashboard/jobs", "tok-acme", nil)
	if list := decode[[]models.Job](t, rec); len(list) != 0 {
		t.Fatalf("dashboard after delete = %+v", list)
	}
}

func TestCreateJobValidation(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodPost, "/dashboard/jobs", "tok-acme", models.JobInput{Title: "Only a title"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if e := decode[APIError](t, rec); e.Error.Code != "invalid_request" {
		t.Fatalf("code = %q", e.Error.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/dashboard/jobs", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer tok-acme")
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", rr.Code)
	}
}

func TestCompaniesListing(t *testing.T) {
	api := newTestAPI(t, nil)
	name := "Acme"
	if rec := api.do(t, http.MethodPut, "/profile", "tok-acme", models.ProfilePatch{CompanyName: &name}); rec.Code != http.StatusOK {
		t.Fatalf("save profile status = %d", rec.Code)
	}
	api.do(t, http.MethodPost, "/dashboard/jobs", "tok-acme", models.JobInput{Title: "t", Description: "d", Location: "l"})

	rec := api.do(t, http.MethodGet, "/companies", "", nil)
	list := decode[[]models.CompanySummary](t, rec)
	if len(list) != 1 || list[0].JobCount != 1 || list[0].CompanyName != "Acme" {
		t.Fatalf("companies = %+v", list)
	}

	rec = api.do(t, http.MethodGet, "/companies/acme", "", nil)
	if detail := decode[models.CompanyDetail](t, rec); len(detail.Jobs) != 1 {
		t.Fatalf("detail = %+v", detail)
	}
	if rec := api.do(t, http.MethodGet, "/companies/nobody", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing company status = %d", rec.Code)
	}
}

func TestProfileRejectsServerFileURIs(t *testing.T) {
	api := newTestAPI(t, nil)
	secret := filepath.Join(t.TempDir(), "service-account.json")
	if err := os.WriteFile(secret, []byte("PRIVATE_KEY=abc123"), 0o600); err != nil {
		t.Fatal(err)
	}
	uri := "file://" + secret

	for _, req := range []struct {
		method, path string
		body         any
	}{
		{http.MethodPut, "/profile", models.ProfilePatch{Logo: &uri}},
		{http.MethodPatch, "/profile", models.ProfilePatch{Gallery: &[]string{uri}}},
		{http.MethodPost, "/dashboard/jobs", models.JobInput{Title: "t", Description: "d", Location: "l", Image: uri}},
	} {
		rec := api.do(t, req.method, req.path, "tok-attacker", req.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %s status = %d, want 400 (body %s)", req.method, req.path, rec.Code, rec.Body)
		}
		if e := decode[APIError](t, rec); e.Error.Code != "invalid_request" {
			t.Fatalf("%s %s error = %+v", req.method, req.path, e.Error)
		}
	}
	if got := api.up.uploaded(); len(got) != 0 {
		t.Fatalf("uploader received %v", got)
	}
	if rec := api.do(t, http.MethodGet, "/companies/attacker", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("company status = %d, want 404", rec.Code)
	}
}

func TestUpload(t *testing.T) {
	api := newTestAPI(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "logo.png")
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer tok-acme")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[models.UploadResponse](t, rec); got.URL != "https://res.example.com/logo.png" {
		t.Fatalf("url = %q", got.URL)
	}
}

func TestPlannerRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	const tok = "tok-acme"

	rec := api.do(t, http.MethodPost, "/planner/2025-09-25", tok, models.DeadlineInput{Title: "Apply", Time: "09:00", Duration: "2h"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body)
	}
	d := decode[models.Deadline](t, rec)

	if rec := api.do(t, http.MethodPost, "/planner/2025-09-25", tok, models.DeadlineInput{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("no title status = %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/planner/2025-09-25/"+d.ID+"/toggle", tok, nil)
	if got := decode[models.Deadline](t, rec); !got.Completed {
		t.Fatalf("toggle = %+v", got)
	}

	rec = api.do(t, http.MethodGet, "/planner", tok, nil)
	marked := decode[map[string][]string](t, rec)
	if len(marked["markedDays"]) != 1 {
		t.Fatalf("marked = %+v", marked)
	}

	if rec := api.do(t, http.MethodGet, "/planner", "tok-other", nil); !strings.Contains(rec.Body.String(), `"markedDays":[]`) {
		t.Fatalf("other user sees %s", rec.Body)
	}

	if rec := api.do(t, http.MethodDelete, "/planner/2025-09-25/"+d.ID, tok, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := api.do(t, http.MethodDelete, "/planner/2025-09-25/"+d.ID, tok, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestAuthRateLimit(t *testing.T) {
	api := newTestAPI(t, NewClientLimiter(0.001, 1, false))
	login := models.LoginRequest{Email: "acme@example.com", Password: "pw"}

	if rec := api.do(t, http.MethodPost, "/auth/login", "", login); rec.Code != http.StatusOK {
		t.Fatalf("first login status = %d", rec.Code)
	}
	rec := api.do(t, http.MethodPost, "/auth/login", "", login)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second login status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
}

func loginFrom(t *testing.T, api *testAPI, remoteAddr, forwardedFor string) int {
	t.Helper()
	body, _ := json.Marshal(models.LoginRequest{Email: "acme@example.com", Password: "pw"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	api := newTestAPI(t, NewClientLimiter(0.001, 1, false))

	allowed := 0
	for i := range 20 {
		if loginFrom(t, api, "198.51.100.9:4000", fmt.Sprintf("10.0.0.%d", i)) == http.StatusOK {
			allowed++
		}
	}
	if allowed != 1 {
		t.Fatalf("logins allowed = %d/20, want 1", allowed)
	}
}

func TestAuthRateLimitTrustedProxyUsesLastHop(t *testing.T) {
	api := newTestAPI(t, NewClientLimiter(0.001, 1, true))
	const proxy = "169.254.1.1:8080"

	allowed := 0
	for i := range 20 {
		if loginFrom(t, api, proxy, fmt.Sprintf("10.0.0.%d, 203.0.113.7", i)) == http.StatusOK {
			allowed++
		}
	}
	if allowed != 1 {
		t.Fatalf("logins allowed for one real client = %d/20, want 1", allowed)
	}
	if code := loginFrom(t, api, proxy, "203.0.113.8"); code != http.StatusOK {
		t.Fatalf("second client status = %d, want 200", code)
	}
}

func TestClientLimiterEvictsIdleClients(t *testing.T) {
	cl := NewClientLimiter(1, 1, false)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cl.now = func() time.Time { return clock }

	for i := range 100 {
		cl.limiterFor(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	if n := cl.clients(); n != 100 {
		t.Fatalf("clients = %d, want 100", n)
	}

	clock = clock.Add(limiterIdleTTL + limiterSweepEvery)
	cl.limiterFor("192.0.2.1")
	if n := cl.clients(); n != 1 {
		t.Fatalf("clients after idle sweep = %d, want 1", n)
	}
}

func TestClientLimiterIsBounded(t *testing.T) {
	cl := NewClientLimiter(1, 1, false)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cl.now = func() time.Time { return clock }

	for i := range limiterMaxClients + 50 {
		cl.limiterFor(fmt.Sprintf("client-%d", i))
	}
	if n := cl.clients(); n != limiterMaxClients {
		t.Fatalf("clients = %d, want cap %d", n, limiterMaxClients)
	}
}

func TestNotificationResponsesReachListeners(t *testing.T) {
	api := newTestAPI(t, nil)
	got := make(chan notify.Response, 1)
	remove := api.notify.OnResponse(func(r notify.Response) { got <- r })
	defer remove()

	tap := notify.Response{NotificationID: "n-1", Data: map[string]any{"jobId": "job-42"}}
	if rec := api.do(t, http.MethodPost, "/notifications/responses", "", tap); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}
	rec := api.do(t, http.MethodPost, "/notifications/responses", "tok-acme", tap)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	select {
	case r := <-got:
		if r.NotificationID != "n-1" || r.Data["jobId"] != "job-42" {
			t.Fatalf("listener got %+v", r)
		}
	default:
		t.Fatal("listener not called")
	}

	if rec := api.do(t, http.MethodPost, "/notifications/responses", "tok-acme", notify.Response{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing id status = %d, want 400", rec.Code)
	}
	select {
	case r := <-got:
		t.Fatalf("rejected tap delivered: %+v", r)
	default:
	}
}

func TestRecoverWritesEnvelope(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RequestID, Recover)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if e := decode[APIError](t, rec); e.Error.Code != "internal_error" || e.Error.RequestID == "" {
		t.Fatalf("error = %+v", e.Error)
	}
}

func TestCorsPreflight(t *testing.T) {
	api := newTestAPI(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/dashboard/jobs", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8081" {
		t.Fatalf("allow origin = %q", got)
	}
}
