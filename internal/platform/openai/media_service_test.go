package openai

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/caselight/caselight-api/internal/config"
	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/generation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopBlobStore struct{}

func (nopBlobStore) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	return "https://media.example/" + key, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewMediaServiceValidation(t *testing.T) {
	t.Parallel()

	_, err := NewMediaService(nil, config.MediaConfig{OpenAIAPIKey: "key"}, nopBlobStore{})
	assert.Error(t, err)

	_, err = NewMediaService(testLogger(), config.MediaConfig{OpenAIAPIKey: "key"}, nil)
	assert.Error(t, err)

	_, err = NewMediaService(testLogger(), config.MediaConfig{}, nopBlobStore{})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	svc, err := NewMediaService(testLogger(), config.MediaConfig{OpenAIAPIKey: "key"}, nopBlobStore{})
	require.NoError(t, err)
	assert.Equal(t, "tts-1", svc.config.SpeechModel)
	assert.Equal(t, "alloy", svc.config.SpeechVoice)
}

func TestGenerateRejectsUnsupportedKind(t *testing.T) {
	t.Parallel()

	svc, err := NewMediaService(testLogger(), config.MediaConfig{OpenAIAPIKey: "key"}, nopBlobStore{})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), generation.Request{
		UnitID:     uuid.New(),
		Kind:       domain.KindSummary,
		SourceText: "text",
	})
	assert.ErrorIs(t, err, generation.ErrUnsupportedKind)
}

func TestGenerateRejectsEmptySource(t *testing.T) {
	t.Parallel()

	svc, err := NewMediaService(testLogger(), config.MediaConfig{OpenAIAPIKey: "key"}, nopBlobStore{})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), generation.Request{
		UnitID: uuid.New(),
		Kind:   domain.KindNarration,
	})
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abcde", 2))
	assert.Equal(t, "äöü", truncateRunes("äöüß", 3), "truncation respects rune boundaries")
}

func TestMediaResponsePayloadShape(t *testing.T) {
	t.Parallel()

	resp, err := mediaResponse("audio_url", "https://media.example/narration/x.mp3")
	require.NoError(t, err)
	assert.Equal(t, generation.StatusDone, resp.Status)
	assert.JSONEq(t, `{"audio_url":"https://media.example/narration/x.mp3"}`, string(resp.Artifact))
}
