// Package openai implements the media generation backend: unit
// narration through the speech API and cover images through the image
// API. Binary output goes to the blob store; the artifact payload only
// carries the resulting URL.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/caselight/caselight-api/internal/config"
	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/generation"
	"github.com/caselight/caselight-api/internal/store"
	openai "github.com/sashabaranov/go-openai"
)

// Narration scripts are capped well under the speech API's input limit.
const maxNarrationRunes = 4000

// MediaService implements generation.Service for the narration and
// cover kinds.
type MediaService struct {
	logger *slog.Logger
	client *openai.Client
	blobs  store.BlobStore
	config config.MediaConfig
}

// NewMediaService creates a new MediaService with the provided
// configuration and blob store.
func NewMediaService(logger *slog.Logger, cfg config.MediaConfig, blobs store.BlobStore) (*MediaService, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if blobs == nil {
		return nil, errors.New("blob store cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = string(openai.TTSModel1)
	}
	if cfg.SpeechVoice == "" {
		cfg.SpeechVoice = string(openai.VoiceAlloy)
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = openai.CreateImageModelDallE3
	}
	if cfg.ImageSize == "" {
		cfg.ImageSize = openai.CreateImageSize1024x1024
	}

	return &MediaService{
		logger: logger.With("component", "openai_media_service"),
		client: openai.NewClient(cfg.OpenAIAPIKey),
		blobs:  blobs,
		config: cfg,
	}, nil
}

// Ensure MediaService implements generation.Service
var _ generation.Service = (*MediaService)(nil)

// Generate implements generation.Service.Generate
// Narration renders source text to speech; cover renders a prompt built
// from the source text to an image. Both are produced inline.
func (s *MediaService) Generate(ctx context.Context, req generation.Request) (*generation.Response, error) {
	if req.SourceText == "" {
		return nil, fmt.Errorf("%w: source text cannot be empty", generation.ErrGenerationFailed)
	}

	switch req.Kind {
	case domain.KindNarration:
		return s.generateNarration(ctx, req)
	case domain.KindCover:
		return s.generateCover(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %s", generation.ErrUnsupportedKind, req.Kind)
	}
}

func (s *MediaService) generateNarration(ctx context.Context, req generation.Request) (*generation.Response, error) {
	script := truncateRunes(req.SourceText, maxNarrationRunes)

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(s.config.SpeechModel),
		Voice: openai.SpeechVoice(s.config.SpeechVoice),
		Input: script,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: speech synthesis: %v", generation.ErrTransientFailure, err)
	}
	defer func() { _ = resp.Close() }()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: reading speech response: %v", generation.ErrTransientFailure, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio response", generation.ErrInvalidResponse)
	}

	key := fmt.Sprintf("narration/%s.mp3", req.UnitID)
	url, err := s.blobs.Put(ctx, key, "audio/mpeg", audio)
	if err != nil {
		return nil, fmt.Errorf("%w: storing narration: %v", generation.ErrTransientFailure, err)
	}

	s.logger.InfoContext(ctx, "narration generated",
		"unit_id", req.UnitID.String(),
		"bytes", len(audio))
	return mediaResponse("audio_url", url)
}

func (s *MediaService) generateCover(ctx context.Context, req generation.Request) (*generation.Response, error) {
	prompt := fmt.Sprintf(
		"A calm, minimalist illustration for a legal study chapter about: %s. No text in the image.",
		truncateRunes(req.SourceText, 600))

	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Model:          s.config.ImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           s.config.ImageSize,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: image generation: %v", generation.ErrTransientFailure, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: empty image response", generation.ErrInvalidResponse)
	}

	image, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image payload: %v", generation.ErrInvalidResponse, err)
	}

	key := fmt.Sprintf("cover/%s.png", req.UnitID)
	url, err := s.blobs.Put(ctx, key, "image/png", image)
	if err != nil {
		return nil, fmt.Errorf("%w: storing cover image: %v", generation.ErrTransientFailure, err)
	}

	s.logger.InfoContext(ctx, "cover image generated",
		"unit_id", req.UnitID.String(),
		"bytes", len(image))
	return mediaResponse("image_url", url)
}

func mediaResponse(field, url string) (*generation.Response, error) {
	raw, err := json.Marshal(map[string]string{field: url})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding payload: %v", generation.ErrInvalidResponse, err)
	}
	return &generation.Response{Status: generation.StatusDone, Artifact: raw}, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
