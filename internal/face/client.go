// Package face talks to the Azure Face API: it detects a face in an image,
// compares two detected faces and composes both into an identity check.
package face

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/logging"
)

// SubscriptionKeyHeader carries the API key on every request.
const SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

// DefaultTimeout bounds a single call to the Face API. Calls are never retried.
const DefaultTimeout = 30 * time.Second

// Match is the verdict of the verify endpoint.
type Match struct {
	IsIdentical bool    `json:"isIdentical"`
	Confidence  float64 `json:"confidence"`
}

// Client defines the face operations the identity check depends on.
type Client interface {
	// DetectFace returns the descriptor id of the first face found in image.
	// It fails with common.ErrNoFaceDetected when there is none.
	DetectFace(ctx context.Context, image []byte) (string, error)

	// VerifyFaces compares two descriptor ids.
	VerifyFaces(ctx context.Context, faceID1, faceID2 string) (*Match, error)
}

// AzureClient implements Client over the Face REST API.
type AzureClient struct {
	endpoint   string
	key        string
	httpClient *http.Client
	logger     logging.Logger
}

// NewAzureClient creates a client for endpoint (for example
// "https://<resource>.cognitiveservices.azure.com/face/v1.0").
// A non-positive timeout selects DefaultTimeout.
func NewAzureClient(endpoint, key string, timeout time.Duration, logger logging.Logger) *AzureClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AzureClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("module", "face_client"),
	}
}

type detectedFace struct {
	FaceID string `json:"faceId"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// DetectFace posts the raw image bytes to the detection endpoint.
func (c *AzureClient) DetectFace(ctx context.Context, image []byte) (string, error) {
	u := c.endpoint + "/detect?returnFaceId=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create detect request: %v", common.ErrFaceService, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(SubscriptionKeyHeader, c.key)

	var faces []detectedFace
	if err := c.do(req, "detect", &faces); err != nil {
		return "", err
	}

	if len(faces) == 0 {
		return "", common.ErrNoFaceDetected
	}
	if faces[0].FaceID == "" {
		return "", fmt.Errorf("%w: detect response has no faceId", common.ErrFaceService)
	}

	c.logger.Debug(ctx, "Face detected", "faces", len(faces))
	return faces[0].FaceID, nil
}

// VerifyFaces asks the verification endpoint whether two faces belong to
// the same person.
func (c *AzureClient) VerifyFaces(ctx context.Context, faceID1, faceID2 string) (*Match, error) {
	u := c.endpoint + "/verify"

	body, err := json.Marshal(map[string]string{
		"faceId1": faceID1,
		"faceId2": faceID2,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal verify request: %v", common.ErrFaceService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create verify request: %v", common.ErrFaceService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SubscriptionKeyHeader, c.key)

	var match Match
	if err := c.do(req, "verify", &match); err != nil {
		return nil, err
	}

	if match.Confidence < 0 || match.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", common.ErrFaceService, match.Confidence)
	}

	c.logger.Info(ctx, "Face verification completed", "identical", match.IsIdentical, "confidence", match.Confidence)
	return &match, nil
}

// HealthCheck reports whether the client is usable. The Face API has no
// unauthenticated health route, so only configuration is checked.
func (c *AzureClient) HealthCheck(ctx context.Context) error {
	if c.endpoint == "" || c.key == "" {
		return fmt.Errorf("%w: endpoint or subscription key not configured", common.ErrFaceService)
	}
	if _, err := url.ParseRequestURI(c.endpoint); err != nil {
		return fmt.Errorf("%w: invalid endpoint: %v", common.ErrFaceService, err)
	}
	return nil
}

// do executes req and decodes a 2xx JSON body into out. Every failure is
// reported as common.ErrFaceService.
func (c *AzureClient) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s request failed: %v", common.ErrFaceService, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return fmt.Errorf("%w: %s failed with status %d: %s", common.ErrFaceService, op, resp.StatusCode, apiErrorMessage(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", common.ErrFaceService, op, err)
	}
	return nil
}

// apiErrorMessage extracts error.message from an Azure error envelope and
// falls back to the raw body.
func apiErrorMessage(body []byte) string {
	var env apiErrorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// IsNoFace reports whether err means the image had no detectable face.
func IsNoFace(err error) bool {
	return errors.Is(err, common.ErrNoFaceDetected)
}
