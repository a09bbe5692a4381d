package model

import "time"

type SubmissionType string

const (
	SubmissionTypeIntake  SubmissionType = "intake"
	SubmissionTypeContact SubmissionType = "contact"
	SubmissionTypeBooking SubmissionType = "booking"
)

type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusContacted SubmissionStatus = "contacted"
	SubmissionStatusResolved  SubmissionStatus = "resolved"
)

// Submission is a persisted business record created from the site's intake,
// contact and booking forms. Mutated only through the admin status update.
type Submission struct {
	ID          string // UUID
	Type        SubmissionType
	Name        string
	Email       string
	WhatsApp    string
	Age         string
	Gender      string
	Country     string
	Weight      string
	Height      string
	Goal        string
	Injuries    string
	Plan        string
	Message     string
	Date        string // booking slot date as submitted
	Time        string // booking slot time as submitted
	Status      SubmissionStatus
	PayStatus   string // "", "pending", "paid"
	AmountPaid  int64
	SubmittedAt time.Time
}

// ProgressPhotos holds the optional base64 data-URL photos attached to an
// intake. Kept out of Submission: they go to the email as attachments and are
// not persisted.
type ProgressPhotos struct {
	Front string
	Side  string
	Back  string
}
