package models

import "time"

// ImageKind tells which slot of the verification flow an image fills.
type ImageKind string

const (
	ImageKindID      ImageKind = "id"
	ImageKindSelfie  ImageKind = "selfie"
	ImageKindProfile ImageKind = "profile"
)

// Valid reports whether k is a known kind.
func (k ImageKind) Valid() bool {
	switch k {
	case ImageKindID, ImageKindSelfie, ImageKindProfile:
		return true
	}
	return false
}

// Upload states of an Image.
const (
	UploadStatusPending  = "pending"
	UploadStatusUploaded = "uploaded"
)

// Image describes server-side metadata for an uploaded picture. The bytes
// live in object storage under Handle.
type Image struct {
	// Handle is the object-storage key and doubles as the opaque handle
	// given to clients.
	Handle    string
	UserID    string
	Kind      ImageKind
	Status    string
	CreatedAt time.Time
}

// ImageUploadTask instructs the client to upload an image using a presigned URL.
type ImageUploadTask struct {
	Handle string
	URL    string
}
