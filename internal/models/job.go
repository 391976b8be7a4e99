package models

import "time"

// Job is a single job posting owned by a Profile (CompanyID == Profile.UID).
type Job struct {
	ID          string    `firestore:"-" json:"id"`
	CompanyID   string    `firestore:"companyId" json:"companyId"`
	Title       string    `firestore:"title" json:"title"`
	Description string    `firestore:"description" json:"description"`
	Location    string    `firestore:"location" json:"location"`
	Salary      string    `firestore:"salary,omitempty" json:"salary,omitempty"`
	Logo        string    `firestore:"logo,omitempty" json:"logo,omitempty"`
	Image       string    `firestore:"image,omitempty" json:"image,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// JobPatch is a partial job update; only non-nil fields are written.
type JobPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	Salary      *string `json:"salary,omitempty"`
	Logo        *string `json:"logo,omitempty"`
	Image       *string `json:"image,omitempty"`
}

// Fields flattens the patch into firestore field paths.
func (p JobPatch) Fields() map[string]any {
	out := map[string]any{}
	set := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}
	set("title", p.Title)
	set("description", p.Description)
	set("location", p.Location)
	set("salary", p.Salary)
	set("logo", p.Logo)
	set("image", p.Image)
	return out
}

// Empty reports whether the patch changes nothing.
func (p JobPatch) Empty() bool { return len(p.Fields()) == 0 }

// JobView is a job enriched with its company's name and logo.
// Both are empty when the owning profile cannot be found.
type JobView struct {
	Job
	CompanyName string `json:"companyName,omitempty"`
	CompanyLogo string `json:"companyLogo,omitempty"`
}
