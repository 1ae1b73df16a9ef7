// Package speech provides an HTTP client for the speech service
// covering both transcription and synthesis
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"voiceform/internal/platform/config"
	perr "voiceform/internal/platform/errors"
	"voiceform/internal/platform/logger"
)

const (
	defaultTimeout = 75 * time.Second
	defaultVoice   = "en-US-neural"

	// chunkSize is the upload frame for transcription; frames are written
	// in order, one at a time
	chunkSize = 3200
)

// Options configures the Client
type Options struct {
	BaseURL string
	APIKey  string
	Voice   string
	Timeout time.Duration
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	sf := cfg.Prefix("SPEECH_")
	return Options{
		BaseURL: sf.MustString("BASE_URL"),
		APIKey:  sf.MayString("API_KEY", ""),
		Voice:   sf.MayString("VOICE", defaultVoice),
		Timeout: sf.MayDuration("TIMEOUT", defaultTimeout),
	}
}

// Client talks to the speech service REST API.
// Implements domain.TranscriberPort and domain.SynthesizerPort
type Client struct {
	http *http.Client
	opts Options
	log  *logger.Logger
}

// New creates a Client with sane defaults
func New(o Options) *Client {
	if o.Voice == "" {
		o.Voice = defaultVoice
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  logger.Named("speech"),
	}
}

// Transcribe uploads audio and returns the recognized transcript.
// An empty transcript means no speech was detected and is not an error
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	pr, pw := io.Pipe()
	go func() {
		// one frame at a time, in order
		for off := 0; off < len(audio); off += chunkSize {
			end := min(off+chunkSize, len(audio))
			if _, err := pw.Write(audio[off:end]); err != nil {
				_ = pw.CloseWithError(err)
				return
			}
		}
		_ = pw.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/v1/transcriptions", pr)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "speech new request failed")
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	c.auth(req)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", perr.Wrap(ctx.Err(), perr.ErrorCodeUnavailable, "transcription timed out")
		}
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "transcription request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", perr.Unavailablef("transcription backend returned %d", resp.StatusCode)
	}

	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "decode transcription response")
	}
	c.log.Debug().
		Int("audio_bytes", len(audio)).
		Dur("elapsed", time.Since(started)).
		Msg("transcription done")
	return out.Transcript, nil
}

// Synthesize renders text to speech and returns the audio bytes
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}{Text: text, Voice: c.opts.Voice})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "marshal synthesis request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/v1/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "speech new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "synthesis request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, perr.Unavailablef("synthesis backend returned %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "read synthesis response")
	}
	if len(audio) == 0 {
		return nil, perr.Unavailablef("synthesis backend returned empty audio")
	}
	return audio, nil
}

func (c *Client) auth(req *http.Request) {
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}
}
