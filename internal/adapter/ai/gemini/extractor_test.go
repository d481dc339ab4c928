package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/pkg/config"
)

type fakeModels struct {
	text   string
	tokens int32
	err    error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, cfg
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{TotalTokenCount: f.tokens},
	}, nil
}

func testRequest() domain.VoiceProcessingRequest {
	return domain.VoiceProcessingRequest{
		AudioData:   "UklGRgAAAABXQVZF",
		FarmUUID:    "farm-1",
		UserUUID:    "user-1",
		AudioFormat: "audio/wav",
		MaxDuration: 60,
	}
}

func TestExtractor_Process(t *testing.T) {
	// Arrange
	models := &fakeModels{
		text: `{"transcription":"vacina aftosa na Mimosa hoje",
			"data":{"health":[{"operation":"create","animalUuid":"a-1","data":{"type":"vaccination","medication":"aftosa"}}]},
			"warnings":["lote não informado"]}`,
		tokens: 812,
	}
	e := newExtractor(models, config.GeminiConfig{Model: "gemini-2.0-flash", Temperature: 0.1}, zap.NewNop())
	e.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }

	// Act
	resp, err := e.Process(context.Background(), testRequest())

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success || resp.Transcription != "vacina aftosa na Mimosa hoje" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Data.Count() != 1 || resp.Data.Health[0].AnimalUUID != "a-1" {
		t.Errorf("unexpected operations %+v", resp.Data)
	}
	if resp.Data.Health[0].Data["medication"] != "aftosa" {
		t.Errorf("unexpected data %+v", resp.Data.Health[0].Data)
	}
	if resp.TokensUsed != 812 {
		t.Errorf("expected 812 tokens, got %d", resp.TokensUsed)
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("expected warnings kept, got %v", resp.Warnings)
	}

	if models.model != "gemini-2.0-flash" {
		t.Errorf("unexpected model %q", models.model)
	}
	if models.config.ResponseMIMEType != "application/json" {
		t.Errorf("expected JSON response mode, got %q", models.config.ResponseMIMEType)
	}
	parts := models.contents[0].Parts
	if len(parts) != 2 || parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "audio/wav" {
		t.Fatalf("expected inline audio part first, got %+v", parts)
	}
	if !strings.Contains(parts[1].Text, "2024-03-15") {
		t.Errorf("expected today's date in prompt, got %q", parts[1].Text)
	}
}

func TestExtractor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		models  *fakeModels
		req     func(r *domain.VoiceProcessingRequest)
		wantErr error
	}{
		{name: "api failure", models: &fakeModels{err: errors.New("quota exceeded")}, wantErr: domain.ErrTranscriptionService},
		{name: "not json", models: &fakeModels{text: "Desculpe, não entendi."}, wantErr: domain.ErrTranscriptionService},
		{name: "empty", models: &fakeModels{text: ""}, wantErr: domain.ErrTranscriptionService},
		{name: "bad audio", models: &fakeModels{}, req: func(r *domain.VoiceProcessingRequest) { r.AudioData = "%%" }, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExtractor(tt.models, config.GeminiConfig{}, zap.NewNop())
			req := testRequest()
			if tt.req != nil {
				tt.req(&req)
			}

			_, err := e.Process(context.Background(), req)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("code fence", func(t *testing.T) {
		resp, err := parseResponse("```json\n{\"transcription\":\"ordenha 18 litros\",\"data\":{\"production\":[{\"data\":{\"type\":\"milk\",\"quantity\":18}}]}}\n```")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Data.Count() != 1 {
			t.Errorf("expected 1 operation, got %d", resp.Data.Count())
		}
	})

	t.Run("empty groups dropped", func(t *testing.T) {
		resp, err := parseResponse(`{"transcription":"bom dia","data":{"animals":[]}}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Data != nil {
			t.Errorf("expected no operations bag, got %+v", resp.Data)
		}
		if !resp.Success {
			t.Error("a transcription without operations is still a success")
		}
	})

	t.Run("no speech", func(t *testing.T) {
		resp, err := parseResponse(`{"transcription":"  "}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Success || len(resp.Errors) == 0 {
			t.Errorf("expected unsuccessful response, got %+v", resp)
		}
	})
}

func TestNewExtractor_RequiresKey(t *testing.T) {
	if _, err := NewExtractor(context.Background(), config.GeminiConfig{}, zap.NewNop()); err == nil {
		t.Fatal("expected error without API key")
	}
}
