package face

import (
	"context"
	"fmt"
	"math"

	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
)

// User-facing messages.
const (
	MessageNoFaceInID     = "No face detected in ID image"
	MessageNoFaceInSelfie = "No face detected in selfie image"
	MessageNoMatch        = "Face on ID does not match selfie"
)

// ImageSource loads the bytes behind an image handle.
type ImageSource interface {
	Open(ctx context.Context, handle string) ([]byte, error)
}

// Verifier composes face detection and verification into a single identity
// check over two stored images.
type Verifier struct {
	client Client
	images ImageSource
	logger logging.Logger
}

func NewVerifier(client Client, images ImageSource, logger logging.Logger) *Verifier {
	return &Verifier{
		client: client,
		images: images,
		logger: logger.With("module", "face_verifier"),
	}
}

// VerifyIdentity detects the face on the ID image, then on the selfie, and
// compares the two. It never returns an error: each failure becomes a
// result with IsVerified=false and a message ready for display. The verify
// endpoint is only called when both faces were found.
func (v *Verifier) VerifyIdentity(ctx context.Context, idHandle, selfieHandle string) *models.VerificationResult {
	idFace, res := v.detect(ctx, idHandle, "ID", models.FailureNoFaceInID, MessageNoFaceInID)
	if res != nil {
		return res
	}

	selfieFace, res := v.detect(ctx, selfieHandle, "selfie", models.FailureNoFaceInSelfie, MessageNoFaceInSelfie)
	if res != nil {
		res.IDFaceID = idFace
		return res
	}

	match, err := v.client.VerifyFaces(ctx, idFace, selfieFace)
	if err != nil {
		v.logger.Warn(ctx, "Face verification failed", "error", err)
		r := serviceFailure(err)
		r.IDFaceID, r.SelfieFaceID = idFace, selfieFace
		return r
	}

	result := &models.VerificationResult{
		IsVerified:   match.IsIdentical,
		Confidence:   match.Confidence,
		IDFaceID:     idFace,
		SelfieFaceID: selfieFace,
	}
	if match.IsIdentical {
		result.Message = MatchMessage(match.Confidence)
	} else {
		result.Message = MessageNoMatch
		result.Failure = models.FailureNoMatch
	}
	return result
}

func (v *Verifier) detect(ctx context.Context, handle, label string, noFace models.FailureKind, noFaceMsg string) (string, *models.VerificationResult) {
	img, err := v.images.Open(ctx, handle)
	if err != nil {
		v.logger.Warn(ctx, "Failed to load image", "image", label, "error", err)
		return "", serviceFailure(fmt.Errorf("failed to load %s image: %w", label, err))
	}

	faceID, err := v.client.DetectFace(ctx, img)
	if err != nil {
		if IsNoFace(err) {
			v.logger.Info(ctx, "No face detected", "image", label)
			return "", &models.VerificationResult{Message: noFaceMsg, Failure: noFace}
		}
		v.logger.Warn(ctx, "Face detection failed", "image", label, "error", err)
		return "", serviceFailure(err)
	}
	return faceID, nil
}

// MatchMessage renders the success message with the confidence as a whole
// percentage.
func MatchMessage(confidence float64) string {
	return fmt.Sprintf("Identity verified with %d%% confidence", int(math.Round(confidence*100)))
}

func serviceFailure(err error) *models.VerificationResult {
	return &models.VerificationResult{
		Message: "Error: " + err.Error(),
		Failure: models.FailureServiceError,
	}
}
