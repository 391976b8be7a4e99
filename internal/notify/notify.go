// Package notify is the job-alert notification service. Permission is
// requested once per process; the scheduling calls are placeholders that
// schedule nothing yet.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// ChannelID is the Android channel job alerts are posted to.
const ChannelID = "job-alerts"

// Permission states reported by a Platform.
const (
	StatusGranted      = "granted"
	StatusDenied       = "denied"
	StatusUndetermined = "undetermined"
)

// Channel describes an Android notification channel.
type Channel struct {
	ID               string
	Name             string
	Description      string
	Importance       string
	VibrationPattern []int
	LightColor       string
	Sound            string
}

// JobRef is the part of a job a notification refers to.
type JobRef struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CompanyID string `json:"companyId"`
}

// Scheduled is a pending notification as reported by the platform.
type Scheduled struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Data    map[string]any `json:"data,omitempty"`
	Trigger string         `json:"trigger,omitempty"`
}

// Response is a user's tap on a delivered notification.
type Response struct {
	NotificationID string         `json:"notificationId"`
	Data           map[string]any `json:"data"`
}

// Platform is the push-notification API of the host.
type Platform interface {
	IsDevice() bool
	PermissionStatus(ctx context.Context) (string, error)
	RequestPermission(ctx context.Context) (string, error)
	SetChannel(ctx context.Context, ch Channel) error
	Scheduled(ctx context.Context) ([]Scheduled, error)
}

// Service is the notification facade. Use Default for the process-wide instance.
type Service struct {
	platform Platform

	mu          sync.Mutex
	initialized bool
	listeners   map[int]func(Response)
	nextID      int
}

func New(p Platform) *Service {
	return &Service{platform: p, listeners: map[int]func(Response){}}
}

var (
	defaultOnce sync.Once
	defaultSvc  *Service
)

// Default returns the process-wide Service backed by a log-only platform.
func Default() *Service {
	defaultOnce.Do(func() {
		defaultSvc = New(LogPlatform{})
	})
	return defaultSvc
}

// Initialize asks for permission and registers the job alerts channel.
// Success is cached; a failed attempt may be retried.
func (s *Service) Initialize(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return true
	}

	if !s.platform.IsDevice() {
		slog.Info("Notifications only work on physical devices.")
		return false
	}

	status, err := s.platform.PermissionStatus(ctx)
	if err != nil {
		slog.Error("Error initializing notifications.", "error", err)
		return false
	}
	if status != StatusGranted {
		status, err = s.platform.RequestPermission(ctx)
		if err != nil {
			slog.Error("Error initializing notifications.", "error", err)
			return false
		}
	}
	if status != StatusGranted {
		slog.Info("Notification permissions not granted.", "status", status)
		return false
	}

	if err := s.platform.SetChannel(ctx, Channel{
		ID:               ChannelID,
		Name:             "Job Alerts",
		Description:      "Notifications for new and updated job postings",
		Importance:       "high",
		VibrationPattern: []int{0, 250, 250, 250},
		LightColor:       "#FF231F7C",
		Sound:            "default",
	}); err != nil {
		slog.Error("Error initializing notifications.", "error", err)
		return false
	}

	s.initialized = true
	return true
}

// ScheduleJobNotification schedules nothing and returns an empty id.
func (s *Service) ScheduleJobNotification(ctx context.Context, job JobRef) (string, error) {
	slog.Debug("Job notification not scheduled.", "jobId", job.ID)
	return "", nil
}

func (s *Service) CancelJobNotification(ctx context.Context, jobID string) error {
	return nil
}

// UpdateJobNotification schedules nothing and returns an empty id.
func (s *Service) UpdateJobNotification(ctx context.Context, job JobRef) (string, error) {
	slog.Debug("Job notification not updated.", "jobId", job.ID)
	return "", nil
}

func (s *Service) ScheduleDailyJobReminders(ctx context.Context, jobs []JobRef) error {
	return nil
}

func (s *Service) CancelAllJobNotifications(ctx context.Context) error {
	return nil
}

func (s *Service) ScheduleJobReminders(ctx context.Context) error {
	return nil
}

// ScheduledNotifications returns whatever the platform reports as pending.
func (s *Service) ScheduledNotifications(ctx context.Context) ([]Scheduled, error) {
	out, err := s.platform.Scheduled(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Scheduled{}
	}
	return out, nil
}

// OnResponse registers a tap listener. Every tap is logged before fn runs;
// fn may be nil. The returned func removes the listener.
func (s *Service) OnResponse(fn func(Response)) (remove func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = func(r Response) {
		slog.Info("Job notification tapped.", "notificationId", r.NotificationID, "data", r.Data)
		if fn != nil {
			fn(r)
		}
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// HandleResponse delivers a tap to the registered listeners.
func (s *Service) HandleResponse(r Response) {
	s.mu.Lock()
	fns := make([]func(Response), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(r)
	}
}

// LogPlatform grants permission and records channel setup in the log.
// Nothing is ever delivered.
type LogPlatform struct{}

func (LogPlatform) IsDevice() bool { return true }

func (LogPlatform) PermissionStatus(context.Context) (string, error) {
	return StatusGranted, nil
}

func (LogPlatform) RequestPermission(context.Context) (string, error) {
	return StatusGranted, nil
}

func (LogPlatform) SetChannel(_ context.Context, ch Channel) error {
	slog.Info("Notification channel registered.", "channel", ch.ID)
	return nil
}

func (LogPlatform) Scheduled(context.Context) ([]Scheduled, error) {
	return nil, nil
}
