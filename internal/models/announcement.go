package models

import (
	"time"

	"github.com/lib/pq"
)

// Announcement is a broadcast message targeted at one or more role audiences.
type Announcement struct {
	ID         string         `db:"id" json:"id"`
	Title      string         `db:"title" json:"title"`
	Content    string         `db:"content" json:"content"`
	Audience   pq.StringArray `db:"audience" json:"audience"`
	AuthorID   string         `db:"author_id" json:"author_id"`
	AuthorName string         `db:"author_name" json:"author_name"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// VisibleTo reports whether the announcement targets the given role. An empty
// audience list means everyone.
func (a Announcement) VisibleTo(role UserRole) bool {
	if len(a.Audience) == 0 {
		return true
	}
	for _, aud := range a.Audience {
		if aud == "all" || aud == string(role) {
			return true
		}
	}
	return false
}

// CreateAnnouncementRequest is the payload for publishing an announcement.
type CreateAnnouncementRequest struct {
	Title    string   `json:"title" validate:"required,min=2,max=200"`
	Content  string   `json:"content" validate:"required,min=2,max=5000"`
	Audience []string `json:"audience" validate:"required,min=1,dive,oneof=all creator admin head teacher"`
}

// UpdateAnnouncementRequest carries partial changes to an announcement.
type UpdateAnnouncementRequest struct {
	Title    *string  `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Content  *string  `json:"content,omitempty" validate:"omitempty,min=2,max=5000"`
	Audience []string `json:"audience,omitempty" validate:"omitempty,min=1,dive,oneof=all creator admin head teacher"`
}

// Empty reports whether the update carries no changes.
func (r UpdateAnnouncementRequest) Empty() bool {
	return r.Title == nil && r.Content == nil && len(r.Audience) == 0
}
