package entity

import "time"

// Attachment represents attachment metadata for a submission
type Attachment struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	Kind         string    `json:"kind"` // PHOTO, DOCUMENT
	FileName     string    `json:"file_name"`
	FilePath     string    `json:"file_path"`
	MimeType     string    `json:"mime_type"`
	FileSize     int64     `json:"file_size"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsPhoto returns true if this attachment is a vehicle photograph
func (a *Attachment) IsPhoto() bool {
	return a.Kind == AttachmentKindPhoto
}

// AttachmentUpload represents uploaded file content before it is stored
type AttachmentUpload struct {
	Content  []byte
	FileName string
	MimeType string
	Kind     string
}
