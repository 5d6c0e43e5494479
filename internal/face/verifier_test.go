package face

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/dmitrijs2005/travelbuddy/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages map[string][]byte

func (f fakeImages) Open(_ context.Context, handle string) ([]byte, error) {
	b, ok := f[handle]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return b, nil
}

// fakeClient maps image contents to detection outcomes.
type fakeClient struct {
	faces       map[string]string
	detectErr   map[string]error
	match       *Match
	verifyErr   error
	detectCalls int
	verifyCalls int
}

func (f *fakeClient) DetectFace(_ context.Context, image []byte) (string, error) {
	f.detectCalls++
	if err, ok := f.detectErr[string(image)]; ok {
		return "", err
	}
	id, ok := f.faces[string(image)]
	if !ok {
		return "", common.ErrNoFaceDetected
	}
	return id, nil
}

func (f *fakeClient) VerifyFaces(_ context.Context, id1, id2 string) (*Match, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.match, nil
}

var testImages = fakeImages{
	"id":     []byte("id-bytes"),
	"selfie": []byte("selfie-bytes"),
}

func TestVerifyIdentity_Match(t *testing.T) {
	c := &fakeClient{
		faces: map[string]string{"id-bytes": "F1", "selfie-bytes": "F2"},
		match: &Match{IsIdentical: true, Confidence: 0.92},
	}
	v := NewVerifier(c, testImages, logging.Nop{})

	res := v.VerifyIdentity(context.Background(), "id", "selfie")

	assert.True(t, res.IsVerified)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
	assert.Equal(t, "Identity verified with 92% confidence", res.Message)
	assert.Equal(t, models.FailureNone, res.Failure)
	assert.Equal(t, "F1", res.IDFaceID)
	assert.Equal(t, "F2", res.SelfieFaceID)
	assert.Equal(t, 2, c.detectCalls)
	assert.Equal(t, 1, c.verifyCalls)
}

func TestVerifyIdentity_NoMatch(t *testing.T) {
	c := &fakeClient{
		faces: map[string]string{"id-bytes": "F1", "selfie-bytes": "F2"},
		match: &Match{IsIdentical: false, Confidence: 0.12},
	}
	res := NewVerifier(c, testImages, logging.Nop{}).VerifyIdentity(context.Background(), "id", "selfie")

	assert.False(t, res.IsVerified)
	assert.InDelta(t, 0.12, res.Confidence, 1e-9)
	assert.Equal(t, MessageNoMatch, res.Message)
	assert.Equal(t, models.FailureNoMatch, res.Failure)
}

func TestVerifyIdentity_NoFaceInID(t *testing.T) {
	c := &fakeClient{faces: map[string]string{"selfie-bytes": "F2"}}
	res := NewVerifier(c, testImages, logging.Nop{}).VerifyIdentity(context.Background(), "id", "selfie")

	assert.False(t, res.IsVerified)
	assert.Equal(t, MessageNoFaceInID, res.Message)
	assert.Equal(t, models.FailureNoFaceInID, res.Failure)
	assert.Equal(t, 1, c.detectCalls)
	assert.Zero(t, c.verifyCalls)
}

func TestVerifyIdentity_NoFaceInSelfie(t *testing.T) {
	c := &fakeClient{faces: map[string]string{"id-bytes": "F1"}}
	res := NewVerifier(c, testImages, logging.Nop{}).VerifyIdentity(context.Background(), "id", "selfie")

	assert.False(t, res.IsVerified)
	assert.Equal(t, MessageNoFaceInSelfie, res.Message)
	assert.Equal(t, models.FailureNoFaceInSelfie, res.Failure)
	assert.Equal(t, "F1", res.IDFaceID)
	assert.Equal(t, 2, c.detectCalls)
	assert.Zero(t, c.verifyCalls)
}

func TestVerifyIdentity_ServiceErrors(t *testing.T) {
	svcErr := fmt.Errorf("%w: detect failed with status 401: Access denied", common.ErrFaceService)

	tests := []struct {
		name        string
		client      *fakeClient
		idHandle    string
		wantVerify  int
		wantMessage string
	}{
		{
			name:        "detect error on id",
			client:      &fakeClient{detectErr: map[string]error{"id-bytes": svcErr}},
			idHandle:    "id",
			wantMessage: "Error: " + svcErr.Error(),
		},
		{
			name: "verify error",
			client: &fakeClient{
				faces:     map[string]string{"id-bytes": "F1", "selfie-bytes": "F2"},
				verifyErr: errors.New("boom"),
			},
			idHandle:    "id",
			wantVerify:  1,
			wantMessage: "Error: boom",
		},
		{
			name:        "missing image",
			client:      &fakeClient{},
			idHandle:    "nope",
			wantMessage: "Error: failed to load ID image: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewVerifier(tt.client, testImages, logging.Nop{}).VerifyIdentity(context.Background(), tt.idHandle, "selfie")
			require.NotNil(t, res)
			assert.False(t, res.IsVerified)
			assert.Equal(t, models.FailureServiceError, res.Failure)
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.Equal(t, tt.wantVerify, tt.client.verifyCalls)
		})
	}
}

func TestMatchMessage_Rounding(t *testing.T) {
	assert.Equal(t, "Identity verified with 87% confidence", MatchMessage(0.8749))
	assert.Equal(t, "Identity verified with 88% confidence", MatchMessage(0.875))
	assert.Equal(t, "Identity verified with 100% confidence", MatchMessage(1))
	assert.Equal(t, "Identity verified with 0% confidence", MatchMessage(0))
}
