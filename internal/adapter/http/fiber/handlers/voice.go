package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/service/voice"
)

type VoiceHandler struct {
	assistant *voice.Assistant
	log       *zap.Logger
}

func NewVoiceHandler(assistant *voice.Assistant, log *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		assistant: assistant,
		log:       log,
	}
}

// AudioRequest carries a finished recording. Farm and user always come from
// the access token.
type AudioRequest struct {
	AudioData   string `json:"audioData"` // Base64
	AudioFormat string `json:"audioFormat"`
	MaxDuration int    `json:"maxDuration"`
}

func (h *VoiceHandler) request(c *fiber.Ctx) (domain.VoiceProcessingRequest, bool) {
	var req AudioRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.VoiceProcessingRequest{}, false
	}
	userID, farmID := middleware.Identity(c)
	return domain.VoiceProcessingRequest{
		AudioData:   req.AudioData,
		FarmUUID:    farmID,
		UserUUID:    userID,
		AudioFormat: req.AudioFormat,
		MaxDuration: req.MaxDuration,
	}, true
}

// Process transcribes and extracts operations without executing them.
func (h *VoiceHandler) Process(c *fiber.Ctx) error {
	req, ok := h.request(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	resp, err := h.assistant.Process(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Execute commits an operations bag the client already reviewed.
func (h *VoiceHandler) Execute(c *fiber.Ctx) error {
	var ops domain.VoiceOperations
	if err := c.BodyParser(&ops); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if ops.Count() == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No operations to execute"})
	}

	userID, farmID := middleware.Identity(c)
	results := h.assistant.Execute(c.UserContext(), &ops, farmID, userID)

	h.log.Info("Voice operations executed",
		zap.String("farm_id", farmID),
		zap.Int("operations", len(results)),
	)
	return c.JSON(fiber.Map{"results": results})
}

// Command processes the audio and executes what was extracted.
func (h *VoiceHandler) Command(c *fiber.Ctx) error {
	req, ok := h.request(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.assistant.Command(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
