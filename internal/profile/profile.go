// Package profile turns stored user rows into the denormalized projections
// embedded in query results: picture keys become fetchable URLs and birth
// dates become integer ages. The resolver is consumed only while building
// read results, never on a write path.
package profile

import (
	"strings"
	"time"

	"github.com/Bashy-Codes/wf-server/internal/domain"
)

// Card is the public projection enriched into list views.
type Card struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Gender         string `json:"gender,omitempty"`
	Age            int    `json:"age,omitempty"`
	Country        string `json:"country,omitempty"`
	ActiveBadge    string `json:"activeBadge,omitempty"`
}

// Summary is the deliberately narrow projection returned by single-letter
// reads: the peer's name and country only.
type Summary struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Resolver maps storage keys to fetchable media URLs.
type Resolver struct {
	// BaseURL is the public media host, e.g. a CDN origin. Empty leaves
	// keys unresolved (useful in tests).
	BaseURL string
}

// PictureURL resolves a stored picture key to a URL. Empty keys stay empty.
func (r Resolver) PictureURL(key string) string {
	if key == "" || r.BaseURL == "" {
		return key
	}
	return strings.TrimRight(r.BaseURL, "/") + "/" + strings.TrimLeft(key, "/")
}

// Card builds the full public projection for a user.
func (r Resolver) Card(u *domain.User, now time.Time) Card {
	return Card{
		UserID:         u.ID,
		Name:           u.Name,
		ProfilePicture: r.PictureURL(u.ProfilePicture),
		Gender:         u.Gender,
		Age:            Age(u.BirthDate, now),
		Country:        u.Country,
		ActiveBadge:    u.ActiveBadge,
	}
}

// Summary builds the minimal peer projection.
func (Resolver) Summary(u *domain.User) Summary {
	return Summary{Name: u.Name, Country: u.Country}
}

// Age derives completed years between birthDate and now, accounting for
// whether this year's birthday has passed. Zero birth dates yield 0.
func Age(birthDate, now time.Time) int {
	if birthDate.IsZero() {
		return 0
	}
	years := now.Year() - birthDate.Year()
	anniversary := birthDate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
