package models

// These structs define the JSON payloads for HTTP requests and responses
// between the JobGrid clients and the API function.

// RegisterRequest is the input for POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName"`
	Logo        string `json:"logo"`
	Location    string `json:"location"`
}

// LoginRequest is the input for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned by register and login.
type Session struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    string `json:"expiresIn,omitempty"`
}

// JobInput is the post-job form.
type JobInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Salary      string `json:"salary"`
	Logo        string `json:"logo"`
	Image       string `json:"image"`
}

// JobFilter narrows a job listing. Zero value lists everything.
type JobFilter struct {
	CompanyID string
	Query     string
}

// CompanyDetail is the public company page: the profile and its postings.
type CompanyDetail struct {
	Profile Profile `json:"profile"`
	Jobs    []Job   `json:"jobs"`
}

// ShareLink is the QR share payload for a job.
type ShareLink struct {
	JobID      string `json:"jobId"`
	QRImageURL string `json:"qrImageUrl"`
	Payload    string `json:"payload"`
}

// UploadResponse is the output of POST /uploads.
type UploadResponse struct {
	URL string `json:"url"`
}

// DeadlineInput is the add/edit form of the planner.
type DeadlineInput struct {
	Title    string `json:"title"`
	Details  string `json:"details"`
	Time     string `json:"time"`
	Duration string `json:"duration"`
}

// JobWrittenEvent is the subset of a Firestore document-write CloudEvent
// payload the notifier reads.
type JobWrittenEvent struct {
	Value *struct {
		Name   string                    `json:"name"`
		Fields map[string]map[string]any `json:"fields"`
	} `json:"value"`
	OldValue *struct {
		Name string `json:"name"`
	} `json:"oldValue"`
}
