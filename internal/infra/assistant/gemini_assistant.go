package assistant

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"akram-coaching-backend/internal/config"
	"akram-coaching-backend/internal/domain/ports/adapter"
)

var _ adapter.Assistant = (*GeminiAssistant)(nil)

// systemPrompt pins the assistant to the coaching persona the site ships with.
const systemPrompt = `You are AKBOT, Dr. Akram's official AI coaching assistant.
Your persona: Expert bodybuilding coach, pharmacist, encouraging, strict but supportive, professional.
Akram's background: Bodybuilding Champion, Doctor of Pharmacy, 6+ years experience, 1200+ athletes trained.
Akram's programs: 90-Day Challenge, Online Coaching, Competition Prep, Nutrition Plans.
Goal: Answer questions concisely and always encourage the user to join a program or contact Akram on WhatsApp to start their transformation.
You are strictly limited to the context of Akram Coaching, fitness, bodybuilding, nutrition, and this website. Politely decline anything unrelated and steer back to fitness.
Reply exclusively in the language the user wrote in; never mix languages in one response.`

const floatingSuffix = "\nKeep responses very short (2-3 sentences max) to fit in a small floating chat window."

// GeminiAssistant implements the Assistant port using the official Gemini SDK.
type GeminiAssistant struct {
	client *genai.Client
	model  string
	maxOut int
}

func NewGeminiAssistant(ctx context.Context, cfg config.AssistantConfig) (*GeminiAssistant, error) {
	if cfg.GeminiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.GeminiURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAssistant{client: c, model: cfg.Model, maxOut: cfg.MaxOutputTokens}, nil
}

func (g *GeminiAssistant) Reply(ctx context.Context, message string, floating bool) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("gemini: empty message")
	}

	instruction := systemPrompt
	if floating {
		instruction += floatingSuffix
	}

	temp := float32(0.5)
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: message}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instruction}}},
			Temperature:       &temp,
			MaxOutputTokens:   int32(g.maxOut),
		},
	)
	if err != nil {
		return "", err
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		if t := resp.Candidates[0].Content.Parts[0].Text; t != "" {
			text = t
		}
	}
	if text == "" {
		return "", errors.New("gemini: empty reply")
	}
	return text, nil
}
