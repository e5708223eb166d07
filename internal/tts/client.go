// Package tts is the HTTP client for the speech-synthesis collaborator
// (ElevenLabs-compatible contract): text in, audio clip out.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production synthesis endpoint.
	DefaultBaseURL = "https://api.elevenlabs.io"

	// DefaultVoiceID is the Rachel voice: clear, professional narration.
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

	modelID = "eleven_multilingual_v2"
)

// Client calls the synthesis API. Any non-success response or timeout is
// a stage failure for the caller; the client does not retry.
type Client struct {
	baseURL    string
	apiKey     string
	voiceID    string
	httpClient *http.Client
}

// NewClient creates a synthesis client. baseURL and voiceID fall back to
// the production defaults when empty.
func NewClient(baseURL, apiKey, voiceID string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		voiceID:    voiceID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// Synthesize converts text to speech and writes the audio to outPath.
// outPath must be absolute; the file is only created on success.
func (c *Client) Synthesize(ctx context.Context, text, outPath string) error {
	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.35,
			SimilarityBoost: 0.8,
			Style:           0.2,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build synthesis request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("synthesis returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(outPath)
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close audio file: %w", err)
	}
	return nil
}
