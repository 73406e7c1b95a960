package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openAISpeechURL = "https://api.openai.com/v1/audio/speech"
	openAITTSModel  = "gpt-4o-mini-tts"
)

// OpenAI synthesizes speech through the OpenAI audio API.
type OpenAI struct {
	apiKey     string
	speechURL  string
	timeout    time.Duration
	httpClient *http.Client
}

// NewOpenAI creates the provider. An empty API key leaves it
// configured but unavailable.
func NewOpenAI(apiKey string, timeout time.Duration) *OpenAI {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{
		apiKey:    apiKey,
		speechURL: openAISpeechURL,
		timeout:   timeout,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (p *OpenAI) Name() string           { return "openai" }
func (p *OpenAI) Available() bool        { return p.apiKey != "" }
func (p *OpenAI) Timeout() time.Duration { return p.timeout }

type openAISpeechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
	Instructions   string `json:"instructions,omitempty"`
}

// Synthesize converts one chunk of text to PCM audio. OpenAI exposes
// no stability knobs; low-stability requests are translated into a
// delivery instruction instead.
func (p *OpenAI) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	body := openAISpeechRequest{
		Model: openAITTSModel,
		Voice: req.Voice,
		Input: req.Text,
		// "pcm" is 24kHz mono s16le, the pipeline's reassembly format.
		ResponseFormat: "pcm",
	}
	if req.Settings.Stability < 0.4 {
		body.Instructions = "Speak expressively, with natural emphasis and varied intonation."
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.speechURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai speech call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openai http %d: %s", resp.StatusCode, string(msg))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("openai returned empty audio")
	}

	return audio, nil
}
