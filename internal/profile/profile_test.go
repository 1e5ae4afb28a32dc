package profile

import (
	"testing"
	"time"

	"github.com/Bashy-Codes/wf-server/internal/domain"
)

func TestAge(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		birth time.Time
		want  int
	}{
		{"birthday passed this year", time.Date(2000, 3, 1, 0, 0, 0, 0, time.UTC), 25},
		{"birthday later this year", time.Date(2000, 9, 1, 0, 0, 0, 0, time.UTC), 24},
		{"birthday today", time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC), 25},
		{"zero birth date", time.Time{}, 0},
		{"future birth date", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tc := range cases {
		if got := Age(tc.birth, now); got != tc.want {
			t.Errorf("%s: Age = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestPictureURL(t *testing.T) {
	r := Resolver{BaseURL: "https://media.example.com/"}
	if got := r.PictureURL("/avatars/u1.jpg"); got != "https://media.example.com/avatars/u1.jpg" {
		t.Fatalf("PictureURL = %q", got)
	}
	if got := r.PictureURL(""); got != "" {
		t.Fatalf("empty key must stay empty, got %q", got)
	}
	if got := (Resolver{}).PictureURL("k"); got != "k" {
		t.Fatalf("no base URL must pass the key through, got %q", got)
	}
}

func TestCardAndSummary(t *testing.T) {
	r := Resolver{BaseURL: "https://cdn"}
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	u := &domain.User{
		ID:             "u1",
		Name:           "Noa",
		ProfilePicture: "p/u1.png",
		Gender:         "female",
		BirthDate:      time.Date(2001, 1, 2, 0, 0, 0, 0, time.UTC),
		Country:        "NL",
		ActiveBadge:    "supporter",
	}

	card := r.Card(u, now)
	if card.UserID != "u1" || card.Name != "Noa" || card.Age != 24 || card.Country != "NL" {
		t.Fatalf("unexpected card: %+v", card)
	}
	if card.ProfilePicture != "https://cdn/p/u1.png" {
		t.Fatalf("picture not resolved: %q", card.ProfilePicture)
	}

	sum := r.Summary(u)
	if sum.Name != "Noa" || sum.Country != "NL" {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}
