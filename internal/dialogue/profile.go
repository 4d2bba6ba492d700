package dialogue

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds long-lived per-user attributes, independent of any
// conversation session.
type UserProfile struct {
	UserID          string         `json:"user_id"`
	FirstName       string         `json:"first_name,omitempty"`
	LastName        string         `json:"last_name,omitempty"`
	Email           string         `json:"email,omitempty"`
	Role            string         `json:"role,omitempty"`
	ExperienceYears int            `json:"experience_years"`
	Languages       []string       `json:"languages"`
	Preferences     map[string]any `json:"preferences"`
	Skills          []string       `json:"skills"`
	Certifications  []string       `json:"certifications"`
	LastActive      time.Time      `json:"last_active"`
	CreatedAt       time.Time      `json:"created_at"`
}

// NewUserProfile creates a profile with default preferences.
// An empty userID gets a generated one.
func NewUserProfile(userID string) *UserProfile {
	if userID == "" {
		userID = uuid.NewString()
	}
	now := time.Now().UTC()
	return &UserProfile{
		UserID:          userID,
		ExperienceYears: 0,
		Languages:       []string{"Français"},
		Preferences: map[string]any{
			"notification_enabled": true,
			"language":             "fr",
			"theme":                "light",
		},
		Skills:         []string{},
		Certifications: []string{},
		LastActive:     now,
		CreatedAt:      now,
	}
}

// Clone returns a deep copy so callers can hold the profile outside the
// manager's lock.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Languages = append([]string(nil), p.Languages...)
	cp.Skills = append([]string(nil), p.Skills...)
	cp.Certifications = append([]string(nil), p.Certifications...)
	cp.Preferences = make(map[string]any, len(p.Preferences))
	for k, v := range p.Preferences {
		cp.Preferences[k] = v
	}
	return &cp
}
