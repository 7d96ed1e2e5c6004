package domain

// Message is a notification to be rendered once and handed to the mail
// transmission service. HTMLBody and Attachment are optional.
type Message struct {
	From       string
	To         string
	Subject    string
	PlainBody  string
	HTMLBody   string
	Attachment *Attachment
}
