package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/observability/telemetry"
	"github.com/seu-repo/agrovoz/internal/ports"
	"github.com/seu-repo/agrovoz/pkg/config"
)

const providerName = "gemini"

// generator is the part of genai.Models the extractor uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Extractor transcribes farm voice commands and extracts proposed
// operations in a single Gemini call.
type Extractor struct {
	models      generator
	model       string
	language    string
	temperature float32
	log         *zap.Logger
	now         func() time.Time
}

func NewExtractor(ctx context.Context, cfg config.GeminiConfig, log *zap.Logger) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newExtractor(client.Models, cfg, log), nil
}

func newExtractor(models generator, cfg config.GeminiConfig, log *zap.Logger) *Extractor {
	e := &Extractor{
		models:      models,
		model:       cfg.Model,
		language:    cfg.Language,
		temperature: cfg.Temperature,
		log:         log.With(zap.String("provider", providerName)),
		now:         time.Now,
	}
	if e.model == "" {
		e.model = "gemini-2.0-flash"
	}
	if e.language == "" {
		e.language = "pt-BR"
	}
	return e
}

var _ ports.VoiceProcessor = (*Extractor)(nil)

// extraction is the JSON document the model is instructed to return.
type extraction struct {
	Transcription string                  `json:"transcription"`
	Data          *domain.VoiceOperations `json:"data"`
	Warnings      []string                `json:"warnings"`
	Unprocessed   []string                `json:"unprocessed"`
}

func (e *Extractor) Process(ctx context.Context, req domain.VoiceProcessingRequest) (*domain.VoiceProcessingResponse, error) {
	started := e.now()

	audio, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil {
		return nil, fmt.Errorf("%w: audio is not valid base64", domain.ErrValidation)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(audio, req.AudioFormat),
			genai.NewPartFromText(userPrompt(e.language, started)),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(e.temperature),
		ResponseMIMEType:  "application/json",
	}

	result, err := e.models.GenerateContent(ctx, e.model, contents, cfg)
	if err != nil {
		e.observe(started, "error")
		e.log.Error("Gemini request failed", zap.String("farm_id", req.FarmUUID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrTranscriptionService, err)
	}

	resp, err := parseResponse(result.Text())
	if err != nil {
		e.observe(started, "invalid")
		e.log.Warn("Gemini returned an unreadable extraction", zap.String("farm_id", req.FarmUUID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrTranscriptionService, err)
	}

	if result.UsageMetadata != nil {
		resp.TokensUsed = int(result.UsageMetadata.TotalTokenCount)
		telemetry.VoiceTokensUsed.WithLabelValues(providerName).Add(float64(resp.TokensUsed))
	}
	resp.ProcessingTime = e.now().Sub(started).Milliseconds()
	e.observe(started, "ok")

	e.log.Info("Voice command extracted",
		zap.String("farm_id", req.FarmUUID),
		zap.Int("operations", resp.Data.Count()),
		zap.Int("tokens", resp.TokensUsed),
		zap.Int64("processing_ms", resp.ProcessingTime),
	)
	return resp, nil
}

func (e *Extractor) observe(started time.Time, status string) {
	telemetry.VoiceProcessingLatency.WithLabelValues(providerName, status).Observe(e.now().Sub(started).Seconds())
}

// parseResponse reads the model's JSON, tolerating a markdown code fence.
// An empty transcription is reported as an unsuccessful extraction.
func parseResponse(text string) (*domain.VoiceProcessingResponse, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var ex extraction
	if err := json.Unmarshal([]byte(text), &ex); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}

	resp := &domain.VoiceProcessingResponse{
		Success:       true,
		Transcription: strings.TrimSpace(ex.Transcription),
		Warnings:      ex.Warnings,
		Unprocessed:   ex.Unprocessed,
	}
	if ex.Data.Count() > 0 {
		resp.Data = ex.Data
	}
	if resp.Transcription == "" {
		resp.Success = false
		resp.Errors = []string{"no speech recognized"}
	}
	return resp, nil
}
