package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/domain/ports/adapter"
	"akram-coaching-backend/internal/domain/ports/repository"
	"akram-coaching-backend/internal/infra/email"
	"akram-coaching-backend/internal/infra/logging"
	"akram-coaching-backend/internal/infra/metrics"
)

// Compile-time check
var _ IntakeUseCase = (*intakeUC)(nil)

type IntakeUseCase interface {
	// Submit persists the form and emails the coach. The coach email is the
	// one that must not be lost; the client confirmation is best effort.
	Submit(ctx context.Context, in IntakeInput) (*model.Submission, error)
}

// IntakeInput is a raw form submission from the site. Everything is a string
// because the forms send free text; validation stays minimal on purpose.
type IntakeInput struct {
	Type     model.SubmissionType
	Name     string
	Email    string
	WhatsApp string
	Age      string
	Gender   string
	Country  string
	Weight   string
	Height   string
	Goal     string
	Injuries string
	Plan     string
	Message  string
	Date     string
	Time     string
	Photos   model.ProgressPhotos
}

type intakeUC struct {
	submissions repository.SubmissionRepository
	mailer      adapter.Mailer
	coachEmail  string
	from        string
	clientFrom  string
	log         *zerolog.Logger
}

func NewIntakeUseCase(
	submissions repository.SubmissionRepository,
	mailer adapter.Mailer,
	coachEmail, from, clientFrom string,
	log *zerolog.Logger,
) *intakeUC {
	return &intakeUC{
		submissions: submissions,
		mailer:      mailer,
		coachEmail:  coachEmail,
		from:        from,
		clientFrom:  clientFrom,
		log:         log,
	}
}

func (u *intakeUC) Submit(ctx context.Context, in IntakeInput) (*model.Submission, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidArgument)
	}
	typ := in.Type
	switch typ {
	case model.SubmissionTypeIntake, model.SubmissionTypeContact, model.SubmissionTypeBooking:
	case "":
		typ = model.SubmissionTypeIntake
	default:
		return nil, fmt.Errorf("%w: unknown submission type %q", domain.ErrInvalidArgument, in.Type)
	}

	s := &model.Submission{
		ID:          uuid.NewString(),
		Type:        typ,
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		WhatsApp:    strings.TrimSpace(in.WhatsApp),
		Age:         strings.TrimSpace(in.Age),
		Gender:      strings.TrimSpace(in.Gender),
		Country:     strings.TrimSpace(in.Country),
		Weight:      strings.TrimSpace(in.Weight),
		Height:      strings.TrimSpace(in.Height),
		Goal:        strings.TrimSpace(in.Goal),
		Injuries:    strings.TrimSpace(in.Injuries),
		Plan:        strings.TrimSpace(in.Plan),
		Message:     strings.TrimSpace(in.Message),
		Date:        strings.TrimSpace(in.Date),
		Time:        strings.TrimSpace(in.Time),
		Status:      model.SubmissionStatusPending,
		SubmittedAt: time.Now(),
	}
	if typ == model.SubmissionTypeIntake && s.Plan != "" {
		s.PayStatus = "pending"
	}

	if err := u.submissions.Save(ctx, s); err != nil {
		return nil, err
	}
	metrics.IncSubmission(string(typ))

	l := logging.With(ctx, u.log)
	subject, html, err := email.CoachIntake(s)
	if err != nil {
		return s, err
	}
	if err := u.mailer.Send(ctx, adapter.Email{
		From:        u.from,
		To:          u.coachEmail,
		ReplyTo:     s.Email,
		Subject:     subject,
		HTML:        html,
		Attachments: photoAttachments(in.Photos),
	}); err != nil {
		return s, fmt.Errorf("send coach email: %w", err)
	}

	// Client confirmation: never fail the submission over it.
	if subject, html, err := email.ClientConfirmation(s); err == nil {
		if err := u.mailer.Send(ctx, adapter.Email{
			From:    u.clientFrom,
			To:      s.Email,
			Subject: subject,
			HTML:    html,
		}); err != nil {
			l.Warn().Err(err).
				Str("submission_id", s.ID).
				Msg("client confirmation email failed")
		}
	}

	l.Info().
		Str("submission_id", s.ID).
		Str("type", string(typ)).
		Msg("submission received")
	return s, nil
}

// photoAttachments decodes the optional base64 data-URL progress photos.
// Malformed photos are dropped rather than failing the whole submission.
func photoAttachments(p model.ProgressPhotos) []adapter.Attachment {
	var out []adapter.Attachment
	for _, ph := range []struct{ name, data string }{
		{"progress-front", p.Front},
		{"progress-side", p.Side},
		{"progress-back", p.Back},
	} {
		if ph.data == "" {
			continue
		}
		content, ext, ok := decodeDataURL(ph.data)
		if !ok {
			continue
		}
		out = append(out, adapter.Attachment{
			Filename: ph.name + "." + ext,
			Content:  content,
		})
	}
	return out
}

// decodeDataURL parses "data:image/<ext>;base64,<payload>". Bare base64
// without a prefix is accepted too and assumed to be jpeg.
func decodeDataURL(s string) (content []byte, ext string, ok bool) {
	ext = "jpg"
	payload := s
	if strings.HasPrefix(s, "data:") {
		comma := strings.Index(s, ",")
		if comma < 0 {
			return nil, "", false
		}
		meta, rest := s[len("data:"):comma], s[comma+1:]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", false
		}
		mime := strings.TrimSuffix(meta, ";base64")
		if sub := strings.TrimPrefix(mime, "image/"); sub != mime && sub != "" {
			if sub == "jpeg" {
				sub = "jpg"
			}
			ext = sub
		}
		payload = rest
	}
	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(content) == 0 {
		return nil, "", false
	}
	return content, ext, true
}
