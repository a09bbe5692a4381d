package adapter

import "context"

// Attachment is a file attached to an outbound email, content already decoded
// from whatever transport encoding the form used.
type Attachment struct {
	Filename string
	Content  []byte
}

// Email is a single outbound message.
type Email struct {
	From        string
	To          string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer is the hex port for the transactional email provider.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}
