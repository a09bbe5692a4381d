//go:build !integration

package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"akram-coaching-backend/internal/domain"
	"akram-coaching-backend/internal/domain/ports/adapter"
)

func TestNewResendMailer(t *testing.T) {
	if _, err := NewResendMailer("", ""); !errors.Is(err, domain.ErrMailerNotConfigured) {
		t.Fatalf("expected ErrMailerNotConfigured, got %v", err)
	}
}

func TestResendMailer_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the message with bearer auth and base64 attachments", func(t *testing.T) {
		var gotAuth string
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/emails" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":"email_01"}`))
		}))
		defer srv.Close()

		m, err := NewResendMailer("re_test_key", srv.URL)
		if err != nil {
			t.Fatalf("init: %v", err)
		}
		err = m.Send(ctx, adapter.Email{
			From:    "Akram Coaching <noreply@akramcoach.com>",
			To:      "coach@akramcoach.com",
			ReplyTo: "sara@x.com",
			Subject: "New Client Intake",
			HTML:    "<p>hi</p>",
			Attachments: []adapter.Attachment{
				{Filename: "progress-front.jpg", Content: []byte("photo-bytes")},
			},
		})
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if gotAuth != "Bearer re_test_key" {
			t.Errorf("expected bearer auth, got %q", gotAuth)
		}
		to, _ := gotBody["to"].([]any)
		if len(to) != 1 || to[0] != "coach@akramcoach.com" {
			t.Errorf("recipient lost: %v", gotBody["to"])
		}
		if gotBody["reply_to"] != "sara@x.com" {
			t.Errorf("reply_to lost: %v", gotBody["reply_to"])
		}
		atts, _ := gotBody["attachments"].([]any)
		if len(atts) != 1 {
			t.Fatalf("expected 1 attachment, got %d", len(atts))
		}
		att := atts[0].(map[string]any)
		want := base64.StdEncoding.EncodeToString([]byte("photo-bytes"))
		if att["content"] != want {
			t.Error("attachment content not base64 encoded")
		}
	})

	t.Run("surfaces provider errors with the response body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"daily quota exceeded"}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		m, _ := NewResendMailer("re_test_key", srv.URL)
		err := m.Send(ctx, adapter.Email{To: "coach@akramcoach.com", Subject: "x", HTML: "y"})
		if err == nil {
			t.Fatal("expected an error, but got nil")
		}
	})
}
