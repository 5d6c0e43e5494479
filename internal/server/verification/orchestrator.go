// Package verification runs identity-verification attempts: it collects an
// ID image and a selfie, asks the face matcher to compare them and records
// a positive match on the user's profile.
//
// Each user has at most one live attempt. An attempt moves through
//
//	idle -> capturing -> verifying -> terminal
//
// where a failed terminal outcome drops straight back to idle with both
// images discarded, and a successful one stays terminal until the user
// starts over.
package verification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
	"github.com/google/uuid"
)

// State of an attempt.
type State string

const (
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
	StateVerifying State = "verifying"
	StateTerminal  State = "terminal"
)

// MessagePersistenceFailed is shown when the match succeeded but could not
// be written to the profile.
const MessagePersistenceFailed = "Error: verification could not be saved, please try again"

// IdentityVerifier compares the faces on two stored images.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, idHandle, selfieHandle string) *models.VerificationResult
}

// Images validates and disposes of uploaded images.
type Images interface {
	Uploaded(ctx context.Context, userID, handle string, kind models.ImageKind) (*models.Image, error)
	Discard(ctx context.Context, handle string) error
}

// Profiles reads and updates the verification flag of a profile.
type Profiles interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	MarkVerified(ctx context.Context, userID string, at time.Time) error
}

// Status is a snapshot of a user's attempt.
type Status struct {
	AttemptID      string
	State          State
	HasIDImage     bool
	HasSelfieImage bool
	CanSubmit      bool

	// ProfileVerified is read once from the profile when the status is
	// requested.
	ProfileVerified bool

	// LastOutcome is the result of the most recent finished attempt.
	LastOutcome *models.VerificationResult
}

type attempt struct {
	mu          sync.Mutex
	id          string
	state       State
	idImage     string
	selfieImage string
	last        *models.VerificationResult
	touched     time.Time

	// dead is set once the attempt has left the map. Writers holding a
	// stale pointer must start over with a fresh attempt.
	dead bool
}

// kill must be called with both o.mu and a.mu held, right before the
// attempt is removed from the map.
func (a *attempt) kill() []string {
	hs := a.handles()
	a.idImage, a.selfieImage = "", ""
	a.dead = true
	return hs
}

func (a *attempt) handles() []string {
	var hs []string
	if a.idImage != "" {
		hs = append(hs, a.idImage)
	}
	if a.selfieImage != "" {
		hs = append(hs, a.selfieImage)
	}
	return hs
}

// AttemptTTL is how long an attempt may sit untouched before it is dropped
// together with its images.
const AttemptTTL = 24 * time.Hour

const pruneInterval = 10 * time.Minute

// Orchestrator owns the attempts of all users.
type Orchestrator struct {
	verifier IdentityVerifier
	images   Images
	profiles Profiles
	logger   logging.Logger
	now      func() time.Time

	mu        sync.Mutex
	attempts  map[string]*attempt
	lastPrune time.Time
}

func NewOrchestrator(verifier IdentityVerifier, images Images, profiles Profiles, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		verifier: verifier,
		images:   images,
		profiles: profiles,
		logger:   logger.With("module", "verification"),
		now:      time.Now,
		attempts: make(map[string]*attempt),
	}
}

// attempt returns the live attempt of userID, creating an idle one if there
// is none. Stale attempts of other users are dropped on the way.
func (o *Orchestrator) attempt(ctx context.Context, userID string) *attempt {
	o.mu.Lock()
	now := o.now()
	stale := o.pruneLocked(now)
	a, ok := o.attempts[userID]
	if !ok {
		a = &attempt{state: StateIdle, touched: now}
		o.attempts[userID] = a
	}
	o.mu.Unlock()

	for user, hs := range stale {
		for _, h := range hs {
			o.discard(ctx, user, h)
		}
	}
	return a
}

// lookup returns the live attempt of userID or nil.
func (o *Orchestrator) lookup(userID string) *attempt {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attempts[userID]
}

// pruneLocked drops attempts untouched for longer than AttemptTTL and
// returns their images by user. Running verifications are never dropped.
func (o *Orchestrator) pruneLocked(now time.Time) map[string][]string {
	if now.Sub(o.lastPrune) < pruneInterval {
		return nil
	}
	o.lastPrune = now

	var stale map[string][]string
	for user, a := range o.attempts {
		a.mu.Lock()
		if a.state == StateVerifying || now.Sub(a.touched) <= AttemptTTL {
			a.mu.Unlock()
			continue
		}
		hs := a.kill()
		a.mu.Unlock()

		delete(o.attempts, user)
		if len(hs) > 0 {
			if stale == nil {
				stale = make(map[string][]string)
			}
			stale[user] = hs
		}
	}
	return stale
}

// AttachImage puts an uploaded image into the ID or selfie slot of the
// user's attempt. A previous image in the same slot is discarded. Attaching
// to a finished attempt starts a new one.
func (o *Orchestrator) AttachImage(ctx context.Context, userID string, kind models.ImageKind, handle string) (*Status, error) {
	if kind != models.ImageKindID && kind != models.ImageKindSelfie {
		return nil, fmt.Errorf("%w: %q images cannot be used for verification", common.ErrValidation, kind)
	}

	if a := o.lookup(userID); a != nil {
		a.mu.Lock()
		busy := a.state == StateVerifying
		a.mu.Unlock()
		if busy {
			return nil, common.ErrVerificationInProgress
		}
	}

	if _, err := o.images.Uploaded(ctx, userID, handle, kind); err != nil {
		return nil, err
	}

	// The attempt may have been reset or expired while the upload was
	// being checked.
	var a *attempt
	for {
		a = o.attempt(ctx, userID)
		a.mu.Lock()
		if !a.dead {
			break
		}
		a.mu.Unlock()
	}

	if a.state == StateVerifying {
		a.mu.Unlock()
		return nil, common.ErrVerificationInProgress
	}
	if a.state == StateIdle || a.state == StateTerminal {
		a.id = uuid.NewString()
	}

	var replaced string
	switch kind {
	case models.ImageKindID:
		replaced, a.idImage = a.idImage, handle
	case models.ImageKindSelfie:
		replaced, a.selfieImage = a.selfieImage, handle
	}
	a.state = StateCapturing
	a.touched = o.now()
	st := o.snapshot(a)
	a.mu.Unlock()

	if replaced != "" && replaced != handle {
		o.discard(ctx, userID, replaced)
	}

	o.logger.Debug(ctx, "Image attached", "user_id", userID, "attempt_id", st.AttemptID, "kind", kind)
	return st, nil
}

// Status returns the current attempt of userID.
func (o *Orchestrator) Status(ctx context.Context, userID string) (*Status, error) {
	st := &Status{State: StateIdle}
	if a := o.lookup(userID); a != nil {
		a.mu.Lock()
		st = o.snapshot(a)
		a.mu.Unlock()
	}

	p, err := o.profiles.Get(ctx, userID)
	switch {
	case err == nil:
		st.ProfileVerified = p.IsVerified
	case errors.Is(err, common.ErrorNotFound):
	default:
		return nil, err
	}
	return st, nil
}

// Submit runs the face match for the attached images and returns its
// outcome. Without both images it fails with common.ErrImagesMissing and
// nothing is sent to the face service. Cancelling ctx does not abort a
// running match.
//
// Failures of the match are reported in the result, not as an error. On a
// match the profile is marked verified exactly once; if that write fails
// the result carries FailurePersistenceError. Both images are discarded
// once the outcome is known.
func (o *Orchestrator) Submit(ctx context.Context, userID string) (*models.VerificationResult, error) {
	a := o.lookup(userID)
	if a == nil {
		return nil, common.ErrImagesMissing
	}

	a.mu.Lock()
	if a.state == StateVerifying {
		a.mu.Unlock()
		return nil, common.ErrVerificationInProgress
	}
	if a.idImage == "" || a.selfieImage == "" {
		a.mu.Unlock()
		return nil, common.ErrImagesMissing
	}
	a.state = StateVerifying
	attemptID, idHandle, selfieHandle := a.id, a.idImage, a.selfieImage
	a.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	log := o.logger.With("user_id", userID, "attempt_id", attemptID)
	log.Info(ctx, "Verification started")

	res := o.verifier.VerifyIdentity(ctx, idHandle, selfieHandle)

	if res.IsVerified {
		if err := o.profiles.MarkVerified(ctx, userID, o.now()); err != nil {
			log.Error(ctx, "Failed to record verification", "error", err)
			res = &models.VerificationResult{
				Confidence:   res.Confidence,
				Message:      MessagePersistenceFailed,
				Failure:      models.FailurePersistenceError,
				IDFaceID:     res.IDFaceID,
				SelfieFaceID: res.SelfieFaceID,
			}
		}
	}

	o.discard(ctx, userID, idHandle)
	o.discard(ctx, userID, selfieHandle)

	a.mu.Lock()
	a.idImage, a.selfieImage = "", ""
	a.last = res
	a.touched = o.now()
	if res.IsVerified {
		a.state = StateTerminal
	} else {
		a.state = StateIdle
	}
	a.mu.Unlock()

	log.Info(ctx, "Verification finished", "verified", res.IsVerified, "failure", res.Failure, "confidence", res.Confidence)
	return res, nil
}

// Reset drops the user's attempt together with its images.
func (o *Orchestrator) Reset(ctx context.Context, userID string) error {
	o.mu.Lock()
	a, ok := o.attempts[userID]
	if !ok {
		o.mu.Unlock()
		return nil
	}

	a.mu.Lock()
	if a.state == StateVerifying {
		a.mu.Unlock()
		o.mu.Unlock()
		return common.ErrVerificationInProgress
	}
	hs := a.kill()
	a.mu.Unlock()

	delete(o.attempts, userID)
	o.mu.Unlock()

	for _, h := range hs {
		o.discard(ctx, userID, h)
	}
	return nil
}

// snapshot must be called with a.mu held.
func (o *Orchestrator) snapshot(a *attempt) *Status {
	st := &Status{
		AttemptID:      a.id,
		State:          a.state,
		HasIDImage:     a.idImage != "",
		HasSelfieImage: a.selfieImage != "",
		LastOutcome:    a.last,
	}
	st.CanSubmit = st.HasIDImage && st.HasSelfieImage && a.state != StateVerifying
	return st
}

// A handle that could not be deleted is only logged: the attempt is over
// either way.
func (o *Orchestrator) discard(ctx context.Context, userID, handle string) {
	if err := o.images.Discard(ctx, handle); err != nil {
		o.logger.Warn(ctx, "Failed to discard image", "user_id", userID, "handle", handle, "error", err)
	}
}
