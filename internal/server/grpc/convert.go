package grpc

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/rpc"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
	"github.com/dmitrijs2005/travelbuddy/internal/server/verification"
)

func formFromRPC(f *rpc.ProfileForm) (*models.ProfileForm, error) {
	var dob time.Time
	if f.DateOfBirth != "" {
		var err error
		dob, err = time.Parse(rpc.DateLayout, f.DateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("%w: date of birth must look like %s", common.ErrValidation, rpc.DateLayout)
		}
	}

	return &models.ProfileForm{
		FullName:        f.FullName,
		DateOfBirth:     dob,
		Gender:          f.Gender,
		Address:         models.Address(f.Address),
		AboutMe:         f.AboutMe,
		TravelInterests: f.TravelInterests,
		ProfileImageRef: f.ProfileImageRef,
	}, nil
}

func profileToRPC(p *models.Profile) *rpc.Profile {
	out := &rpc.Profile{
		ProfileForm: rpc.ProfileForm{
			FullName:        p.FullName,
			Gender:          p.Gender,
			Address:         rpc.Address(p.Address),
			AboutMe:         p.AboutMe,
			TravelInterests: p.TravelInterests,
			ProfileImageRef: p.ProfileImageRef,
		},
		ProfileCreated: p.ProfileCreated,
		IsVerified:     p.IsVerified,
		VerifiedAt:     p.VerifiedAt,
	}
	if !p.DateOfBirth.IsZero() {
		out.DateOfBirth = p.DateOfBirth.Format(rpc.DateLayout)
	}
	return out
}

func resultToRPC(r *models.VerificationResult) *rpc.VerificationResult {
	if r == nil {
		return nil
	}
	return &rpc.VerificationResult{
		IsVerified: r.IsVerified,
		Confidence: r.Confidence,
		Message:    r.Message,
		Failure:    string(r.Failure),
	}
}

func statusToRPC(st *verification.Status) *rpc.VerificationStatus {
	return &rpc.VerificationStatus{
		AttemptID:       st.AttemptID,
		State:           string(st.State),
		HasIDImage:      st.HasIDImage,
		HasSelfieImage:  st.HasSelfieImage,
		CanSubmit:       st.CanSubmit,
		ProfileVerified: st.ProfileVerified,
		LastOutcome:     resultToRPC(st.LastOutcome),
	}
}
