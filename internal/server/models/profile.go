// Package models defines server-side data models persisted in the database
// or exchanged between services.
package models

import (
	"slices"
	"time"
)

// Travel interests offered by the profile form.
const (
	InterestAdventure = "Adventure"
	InterestCulture   = "Culture"
	InterestNature    = "Nature"
	InterestUrban     = "Urban"
)

// AllowedInterests lists every accepted travel interest.
var AllowedInterests = []string{InterestAdventure, InterestCulture, InterestNature, InterestUrban}

// Address is the postal address captured by the profile form.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Profile is the per-user record gating the onboarding flow.
//
// VerifiedAt is non-nil exactly when IsVerified is true; only the
// verification orchestrator sets either of them.
type Profile struct {
	UserID          string
	ProfileCreated  bool
	IsVerified      bool
	VerifiedAt      *time.Time
	FullName        string
	DateOfBirth     time.Time
	Gender          string
	Address         Address
	AboutMe         string
	TravelInterests []string
	ProfileImageRef string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProfileForm carries the user-editable part of a Profile.
type ProfileForm struct {
	FullName        string
	DateOfBirth     time.Time
	Gender          string
	Address         Address
	AboutMe         string
	TravelInterests []string
	ProfileImageRef string
}

// NormalizeInterests turns a list of interests into a set: duplicates are
// collapsed and the result is sorted. Unknown values are kept so that the
// caller can reject them.
func NormalizeInterests(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// IsAllowedInterest reports whether v is one of AllowedInterests.
func IsAllowedInterest(v string) bool {
	return slices.Contains(AllowedInterests, v)
}
