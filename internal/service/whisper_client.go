package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"rewind_backend/internal/config"
	"sync/atomic"
	"time"
)

// Transcriber 语音转文字
type Transcriber interface {
	Enabled() bool
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

type WhisperClient struct {
	baseURL string
	apiKey  atomic.Value
	client  *http.Client
}

func NewWhisperClient(cfg config.OpenAIConfig) *WhisperClient {
	c := &WhisperClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	c.SetAPIKey(cfg.APIKey)
	return c
}

func (c *WhisperClient) SetAPIKey(key string) {
	c.apiKey.Store(key)
}

func (c *WhisperClient) key() string {
	key, _ := c.apiKey.Load().(string)
	return key
}

func (c *WhisperClient) Enabled() bool {
	return c.key() != ""
}

func (c *WhisperClient) download(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download audio: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *WhisperClient) Transcribe(ctx context.Context, audioURL string) (string, error) {
	audio, err := c.download(ctx, audioURL)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "audio.webm")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	writer.WriteField("model", "whisper-1")
	writer.WriteField("language", "en")
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.key())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode whisper response: %w", err)
	}
	return parsed.Text, nil
}
