// Package gate decides which top-level flow a client shows: sign-in,
// profile creation or the main application.
package gate

import (
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
	"github.com/dmitrijs2005/travelbuddy/internal/server/session"
)

// Flow is a top-level client flow.
type Flow string

const (
	FlowAuth            Flow = "auth"
	FlowProfileCreation Flow = "profile_creation"
	FlowMain            Flow = "main"
)

// Decide picks the flow for a session and its profile. A nil session means
// nobody is signed in and a nil profile means the record does not exist
// yet. Verification status plays no part in the decision.
func Decide(s *session.Session, p *models.Profile) Flow {
	switch {
	case s == nil:
		return FlowAuth
	case p == nil || !p.ProfileCreated:
		return FlowProfileCreation
	default:
		return FlowMain
	}
}
