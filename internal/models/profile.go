package models

// Profile is a company's account record in the users collection.
// The document ID is the auth user ID, mirrored in UID.
type Profile struct {
	UID         string   `firestore:"uid" json:"uid"`
	Email       string   `firestore:"email" json:"email"`
	CompanyName string   `firestore:"companyName" json:"companyName"`
	Logo        string   `firestore:"logo" json:"logo"`
	Location    string   `firestore:"location" json:"location"`
	CEOName     string   `firestore:"ceoName" json:"ceoName"`
	Phone       string   `firestore:"phone" json:"phone"`
	Description string   `firestore:"description" json:"description"`
	Gallery     []string `firestore:"gallery" json:"gallery"`
	CreatedAt   string   `firestore:"createdAt" json:"createdAt"`
}

// ProfilePatch carries the fields a profile edit touches. Nil means "leave as is".
type ProfilePatch struct {
	Email       *string   `json:"email,omitempty"`
	CompanyName *string   `json:"companyName,omitempty"`
	Logo        *string   `json:"logo,omitempty"`
	Location    *string   `json:"location,omitempty"`
	CEOName     *string   `json:"ceoName,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Description *string   `json:"description,omitempty"`
	Gallery     *[]string `json:"gallery,omitempty"`
}

// Fields flattens the patch into firestore field paths.
func (p ProfilePatch) Fields() map[string]any {
	out := map[string]any{}
	set := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}
	set("email", p.Email)
	set("companyName", p.CompanyName)
	set("logo", p.Logo)
	set("location", p.Location)
	set("ceoName", p.CEOName)
	set("phone", p.Phone)
	set("description", p.Description)
	if p.Gallery != nil {
		g := *p.Gallery
		if g == nil {
			g = []string{}
		}
		out["gallery"] = g
	}
	return out
}

// Apply copies the set fields of p onto profile.
func (p ProfilePatch) Apply(profile *Profile) {
	if p.Email != nil {
		profile.Email = *p.Email
	}
	if p.CompanyName != nil {
		profile.CompanyName = *p.CompanyName
	}
	if p.Logo != nil {
		profile.Logo = *p.Logo
	}
	if p.Location != nil {
		profile.Location = *p.Location
	}
	if p.CEOName != nil {
		profile.CEOName = *p.CEOName
	}
	if p.Phone != nil {
		profile.Phone = *p.Phone
	}
	if p.Description != nil {
		profile.Description = *p.Description
	}
	if p.Gallery != nil {
		profile.Gallery = append([]string{}, (*p.Gallery)...)
	}
}

// CompanySummary is a profile as listed on the companies screen.
type CompanySummary struct {
	Profile
	JobCount int `json:"jobCount"`
}
