package rpc

import "time"

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

// DateLayout is the format of Profile.DateOfBirth.
const DateLayout = "2006-01-02"

type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

// ProfileForm is the editable part of a profile.
type ProfileForm struct {
	FullName        string   `json:"full_name"`
	DateOfBirth     string   `json:"date_of_birth"`
	Gender          string   `json:"gender,omitempty"`
	Address         Address  `json:"address"`
	AboutMe         string   `json:"about_me,omitempty"`
	TravelInterests []string `json:"travel_interests,omitempty"`
	ProfileImageRef string   `json:"profile_image_ref,omitempty"`
}

type Profile struct {
	ProfileForm
	ProfileCreated bool       `json:"profile_created"`
	IsVerified     bool       `json:"is_verified"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
}

type GetProfileRequest struct{}

type GetProfileResponse struct {
	// Profile is nil when the user has not saved one yet.
	Profile *Profile `json:"profile,omitempty"`
}

type SaveProfileRequest struct {
	Form ProfileForm `json:"form"`
}

type SaveProfileResponse struct {
	Profile *Profile `json:"profile"`
}

type RequestImageUploadRequest struct {
	Kind string `json:"kind"`
}

type RequestImageUploadResponse struct {
	Handle    string `json:"handle"`
	UploadURL string `json:"upload_url"`
}

type ConfirmImageUploadRequest struct {
	Handle string `json:"handle"`
}

type ConfirmImageUploadResponse struct {
	Handle string `json:"handle"`
	Kind   string `json:"kind"`

	// Verification is set when the image was attached to the verification
	// attempt, that is for id and selfie images.
	Verification *VerificationStatus `json:"verification,omitempty"`
}

type VerificationResult struct {
	IsVerified bool    `json:"is_verified"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
	Failure    string  `json:"failure,omitempty"`
}

type VerificationStatus struct {
	AttemptID       string              `json:"attempt_id,omitempty"`
	State           string              `json:"state"`
	HasIDImage      bool                `json:"has_id_image"`
	HasSelfieImage  bool                `json:"has_selfie_image"`
	CanSubmit       bool                `json:"can_submit"`
	ProfileVerified bool                `json:"profile_verified"`
	LastOutcome     *VerificationResult `json:"last_outcome,omitempty"`
}

type GetVerificationStatusRequest struct{}

type GetVerificationStatusResponse struct {
	Status VerificationStatus `json:"status"`
}

type SubmitVerificationRequest struct{}

type SubmitVerificationResponse struct {
	Result VerificationResult `json:"result"`
}

type ResetVerificationRequest struct{}

type ResetVerificationResponse struct{}

type WatchFlowRequest struct{}

// FlowUpdate announces the flow the client should show.
type FlowUpdate struct {
	Flow string    `json:"flow"`
	At   time.Time `json:"at"`
}
