package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/travelbuddy/internal/client/acquire"
	"github.com/dmitrijs2005/travelbuddy/internal/rpc"
)

// Image kinds accepted by upload.
const (
	KindID      = "id"
	KindSelfie  = "selfie"
	KindProfile = "profile"
)

var errUploadUsage = errors.New("usage: upload id|selfie|profile [path]")

// Upload sends a local image of the given kind. Without a path argument the
// user is asked for one; an empty answer cancels.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUploadUsage
	}
	kind := args[0]
	switch kind {
	case KindID, KindSelfie, KindProfile:
	default:
		return errUploadUsage
	}

	var path string
	if len(args) > 1 {
		path = args[1]
	} else {
		var err error
		if path, err = getSimpleText(a.reader, "Enter image path (empty to cancel)", a.out); err != nil {
			return err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.requestTimeout())
	defer cancel()

	resp, err := a.images.Acquire(callCtx, kind, path)
	if errors.Is(err, acquire.ErrCancelled) {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Uploaded %s image\n", kind)

	if kind == KindProfile {
		return a.attachProfileImage(callCtx, resp.Handle)
	}
	if resp.Verification != nil {
		printStatus(a, resp.Verification)
	}
	return nil
}

// attachProfileImage saves the handle into an existing profile or keeps it
// for the next editprofile.
func (a *App) attachProfileImage(ctx context.Context, handle string) error {
	p, err := a.api.GetProfile(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		a.pendingProfileImage = handle
		fmt.Fprintln(a.out, "The picture will be attached when you save your profile")
		return nil
	}

	form := p.ProfileForm
	form.ProfileImageRef = handle
	if _, err := a.api.SaveProfile(ctx, form); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile picture updated")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout())
	defer cancel()

	st, err := a.api.VerificationStatus(ctx)
	if err != nil {
		return err
	}
	printStatus(a, st)
	return nil
}

func check(b bool) string {
	if b {
		return "[x]"
	}
	return "[ ]"
}

func printStatus(a *App, st *rpc.VerificationStatus) {
	fmt.Fprintf(a.out, "Verification: %s\n", st.State)
	fmt.Fprintf(a.out, "  %s identification document\n", check(st.HasIDImage))
	fmt.Fprintf(a.out, "  %s selfie\n", check(st.HasSelfieImage))
	if st.ProfileVerified {
		fmt.Fprintln(a.out, "  profile is verified")
	}
	if st.LastOutcome != nil {
		fmt.Fprintf(a.out, "  last outcome: %s\n", st.LastOutcome.Message)
	}
	if st.CanSubmit {
		fmt.Fprintln(a.out, "Ready, type 'verify' to submit")
	}
}

// Verify submits the current attempt and waits for the outcome.
func (a *App) Verify(ctx context.Context) error {
	fmt.Fprintln(a.out, "Verifying, please wait...")

	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	res, err := a.api.SubmitVerification(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, res.Message)
	if res.IsVerified {
		fmt.Fprintf(a.out, "Confidence: %.2f\n", res.Confidence)
	}
	return nil
}

func (a *App) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout())
	defer cancel()

	if err := a.api.ResetVerification(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Verification attempt cleared")
	return nil
}
