package voiceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/agrovoz/internal/observability/telemetry"
	"github.com/seu-repo/agrovoz/internal/ports"
	"github.com/seu-repo/agrovoz/pkg/config"
)

const (
	providerName    = "http"
	maxResponseSize = 4 << 20
)

// Client calls a remote voice-processing endpoint that speaks the
// VoiceProcessingRequest/VoiceProcessingResponse JSON contract.
type Client struct {
	endpoint string
	token    string
	http     *circuitbreaker.HTTPClient
	log      *zap.Logger
}

func NewClient(voice config.VoiceConfig, cb config.CircuitBreakerConfig, log *zap.Logger) *Client {
	log = log.With(zap.String("provider", providerName))
	breaker := circuitbreaker.New("voice-api", cb, log)
	return &Client{
		endpoint: voice.Endpoint,
		token:    voice.APIToken,
		http:     circuitbreaker.NewHTTPClient(&http.Client{Timeout: voice.ProcessingTimeout}, breaker, log),
		log:      log,
	}
}

var _ ports.VoiceProcessor = (*Client)(nil)

func (c *Client) Process(ctx context.Context, req domain.VoiceProcessingRequest) (*domain.VoiceProcessingResponse, error) {
	started := time.Now()
	resp, err := c.do(ctx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	telemetry.VoiceProcessingLatency.WithLabelValues(providerName, status).Observe(time.Since(started).Seconds())
	if err != nil {
		c.log.Error("Voice API request failed", zap.String("farm_id", req.FarmUUID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrTranscriptionService, err)
	}
	if resp.TokensUsed > 0 {
		telemetry.VoiceTokensUsed.WithLabelValues(providerName).Add(float64(resp.TokensUsed))
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, req domain.VoiceProcessingRequest) (*domain.VoiceProcessingResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out domain.VoiceProcessingResponse
	if err := json.Unmarshal(data, &out); err != nil {
		if httpResp.StatusCode >= 300 {
			return nil, fmt.Errorf("voice api returned status %d", httpResp.StatusCode)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	// A 4xx with a well-formed body is a rejected request, reported through
	// success=false and errors.
	if httpResp.StatusCode >= 300 && out.Success {
		return nil, fmt.Errorf("voice api returned status %d", httpResp.StatusCode)
	}
	return &out, nil
}
