package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"akram-coaching-backend/internal/domain/model"
)

// Branding shared by all templates.
const (
	brandRed  = "#ec3642"
	brandName = "AKRAM COACHING"
)

// submittedAt formats timestamps the way the coach expects them: Algiers time.
func submittedAt(t time.Time) string {
	loc, err := time.LoadLocation("Africa/Algiers")
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Monday, 2 January 2006, 15:04")
}

type templateRow struct {
	Label string
	Value string
}

type templateData struct {
	Brand       string
	BrandRed    string
	Title       string
	Badge       string
	SubmittedAt string
	Sections    []templateSection
	FooterNote  string
}

type templateSection struct {
	Title string
	Rows  []templateRow
}

var baseTpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1"></head>
<body style="margin:0;padding:0;background:#050505;font-family:'Segoe UI',Arial,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="background:#050505;padding:40px 20px;">
    <tr><td align="center">
      <table width="600" cellpadding="0" cellspacing="0" style="max-width:600px;width:100%;">
        <tr><td style="background:linear-gradient(135deg,#0a0a0a,#1a0a0a);border:1px solid #2a1a1a;border-radius:16px 16px 0 0;padding:32px;text-align:center;">
          <div style="display:inline-block;background:{{.BrandRed}};color:#fff;font-size:24px;font-weight:900;padding:10px 20px;border-radius:12px;margin-bottom:16px;">{{.Brand}}</div>
          <h1 style="color:#fff;font-size:22px;font-weight:800;margin:0 0 8px;">{{.Title}}</h1>
          <div style="background:{{.BrandRed}};color:#fff;display:inline-block;padding:6px 18px;border-radius:999px;font-size:13px;font-weight:700;text-transform:uppercase;">{{.Badge}}</div>
          <div style="color:#6b7280;font-size:12px;margin-top:12px;">{{.SubmittedAt}}</div>
        </td></tr>
        <tr><td style="background:#0d0d0d;border:1px solid #1f1f1f;border-top:none;border-bottom:none;padding:32px;">
          {{range .Sections}}
          <div style="margin-bottom:28px;">
            <div style="background:{{$.BrandRed}};color:#fff;font-size:11px;font-weight:800;text-transform:uppercase;padding:8px 16px;border-radius:8px 8px 0 0;">{{.Title}}</div>
            <table style="width:100%;border-collapse:collapse;background:#111;border-radius:0 0 8px 8px;">
              <tbody>
              {{range .Rows}}{{if .Value}}
                <tr>
                  <td style="padding:10px 16px;font-size:13px;color:#9ca3af;font-weight:600;text-transform:uppercase;width:180px;vertical-align:top;border-bottom:1px solid #1f1f1f;">{{.Label}}</td>
                  <td style="padding:10px 16px;font-size:14px;color:#f3f4f6;vertical-align:top;border-bottom:1px solid #1f1f1f;">{{.Value}}</td>
                </tr>
              {{end}}{{end}}
              </tbody>
            </table>
          </div>
          {{end}}
        </td></tr>
        <tr><td style="background:#0a0a0a;border:1px solid #1f1f1f;border-top:none;border-radius:0 0 16px 16px;padding:24px;text-align:center;">
          <p style="color:#6b7280;font-size:13px;margin:0 0 12px;">{{.FooterNote}}</p>
          <p style="color:#374151;font-size:11px;margin:0;">Akram Coaching Automated Notification System</p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`))

func render(data templateData) (string, error) {
	data.Brand = brandName
	data.BrandRed = brandRed
	var buf bytes.Buffer
	if err := baseTpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PaymentNotification builds the "payment confirmed" email to the coach.
func PaymentNotification(p model.VerifiedPayment, verified bool) (subject, html string, err error) {
	trust := "Client-reported (unverified)"
	if verified {
		trust = "Server-verified"
	}
	subject = fmt.Sprintf("💰 Payment received — %s (%d %s)", p.Name, p.Amount, p.Currency)
	html, err = render(templateData{
		Title:       "New Payment Received",
		Badge:       p.Method,
		SubmittedAt: submittedAt(p.PaidAt),
		Sections: []templateSection{
			{Title: "💳 Payment", Rows: []templateRow{
				{Label: "Amount", Value: fmt.Sprintf("%d %s", p.Amount, p.Currency)},
				{Label: "Plan", Value: p.Plan},
				{Label: "Method", Value: p.Method},
				{Label: "Verification", Value: trust},
				{Label: "Transaction", Value: p.CheckoutID},
			}},
			{Title: "👤 Client", Rows: []templateRow{
				{Label: "Full Name", Value: p.Name},
				{Label: "Email", Value: p.Email},
			}},
		},
		FooterNote: "Reach out to the client within 24-48 hours to activate their plan.",
	})
	return subject, html, err
}

// CoachIntake builds the submission email to the coach, with type-aware sections.
func CoachIntake(s *model.Submission) (subject, html string, err error) {
	var title, badge string
	switch s.Type {
	case model.SubmissionTypeBooking:
		title, badge = "New Consultation Booking", "Consultation"
	case model.SubmissionTypeContact:
		title, badge = "New Message Received", "General Message"
	default:
		title, badge = "New Client Intake Received", s.Plan+" Plan"
	}
	subject = fmt.Sprintf("🏋️ %s — %s", title, s.Name)

	sections := []templateSection{
		{Title: "👤 Personal Information", Rows: []templateRow{
			{Label: "Full Name", Value: s.Name},
			{Label: "Email", Value: s.Email},
			{Label: "WhatsApp", Value: s.WhatsApp},
			{Label: "Age", Value: s.Age},
			{Label: "Gender", Value: s.Gender},
			{Label: "Country", Value: s.Country},
		}},
	}
	if s.Type == model.SubmissionTypeBooking {
		sections = append(sections, templateSection{Title: "🗓️ Appointment Details", Rows: []templateRow{
			{Label: "Selected Date", Value: s.Date},
			{Label: "Selected Time", Value: s.Time},
		}})
	} else {
		sections = append(sections, templateSection{Title: "🏥 Body & Health", Rows: []templateRow{
			{Label: "Weight", Value: withUnit(s.Weight, "kg")},
			{Label: "Height", Value: withUnit(s.Height, "cm")},
			{Label: "Injuries / Limitations", Value: s.Injuries},
		}})
	}
	sections = append(sections, templateSection{Title: "🎯 Goal & Message", Rows: []templateRow{
		{Label: "Training Goal", Value: s.Goal},
		{Label: "Message", Value: s.Message},
	}})

	html, err = render(templateData{
		Title:       title,
		Badge:       badge,
		SubmittedAt: submittedAt(s.SubmittedAt),
		Sections:    sections,
		FooterNote:  "Reply directly to this email or reach the client on WhatsApp: " + s.WhatsApp,
	})
	return subject, html, err
}

// ClientConfirmation builds the best-effort confirmation sent to the client.
func ClientConfirmation(s *model.Submission) (subject, html string, err error) {
	subject = "Welcome to Akram Coaching — we received your submission"
	html, err = render(templateData{
		Title:       "We Got Your Submission!",
		Badge:       "Confirmation",
		SubmittedAt: submittedAt(s.SubmittedAt),
		Sections: []templateSection{
			{Title: "✅ What happens next", Rows: []templateRow{
				{Label: "Step 1", Value: "Coach Akram reviews your submission personally."},
				{Label: "Step 2", Value: "You will be contacted on WhatsApp within 24-48 hours."},
				{Label: "Step 3", Value: "Your transformation starts."},
			}},
		},
		FooterNote: "Questions? Just reply to this email.",
	})
	return subject, html, err
}

func withUnit(v, unit string) string {
	if v == "" {
		return ""
	}
	return v + " " + unit
}
