package models

// FailureKind classifies why a verification did not succeed.
type FailureKind string

const (
	FailureNone             FailureKind = ""
	FailureNoFaceInID       FailureKind = "no_face_id"
	FailureNoFaceInSelfie   FailureKind = "no_face_selfie"
	FailureNoMatch          FailureKind = "no_match"
	FailureServiceError     FailureKind = "service_error"
	FailurePersistenceError FailureKind = "persistence_error"
)

// VerificationResult is the user-presentable outcome of comparing an ID
// image with a selfie. Failures are expressed here rather than as errors.
type VerificationResult struct {
	IsVerified bool
	Confidence float64
	Message    string
	Failure    FailureKind

	// Face descriptors returned by the detection endpoint, when obtained.
	IDFaceID     string
	SelfieFaceID string
}
