package domain

// Attachment is a binary mail part: payload plus display name and MIME type.
// Values are copied between stages, never shared for mutation.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}
