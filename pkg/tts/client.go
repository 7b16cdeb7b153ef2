package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithVoice sets the voice identifier sent with each request.
func WithVoice(voice string) ClientOption {
	return func(c *Client) { c.voice = voice }
}

// WithSampleRate sets the requested output sample rate in Hz.
func WithSampleRate(rate int) ClientOption {
	return func(c *Client) { c.sampleRate = rate }
}

// WithReadTimeout bounds the wait for each audio frame.
func WithReadTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.readTimeout = d }
}

// Client is a streaming Synthesizer speaking a websocket protocol: one JSON
// request frame, then binary audio frames from the service until a normal
// close. Audio bytes are streamed to the caller's writer as they arrive, so
// a whole utterance never needs to fit in memory.
type Client struct {
	endpoint    string
	appID       string
	accessKey   string
	voice       string
	sampleRate  int
	readTimeout time.Duration
}

var _ Synthesizer = (*Client)(nil)

// NewClient creates a Client for the given websocket endpoint.
func NewClient(endpoint, appID, accessKey string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		appID:       appID,
		accessKey:   accessKey,
		voice:       "en_female_amanda",
		sampleRate:  16000,
		readTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// synthesisRequest is the JSON request frame.
type synthesisRequest struct {
	Text       string `json:"text"`
	Locale     string `json:"locale"`
	Voice      string `json:"voice"`
	Format     string `json:"format"`
	SampleRate int    `json:"sample_rate"`
}

// synthesisStatus is the JSON status frame the service may send before
// closing, reporting failure.
type synthesisStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Synthesize streams synthesized audio for text into w.
func (c *Client) Synthesize(ctx context.Context, text, locale string, w io.Writer) error {
	headers := http.Header{}
	headers.Set("X-Api-App-Id", c.appID)
	headers.Set("X-Api-Access-Key", c.accessKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("tts: connect failed: %w, status=%s", err, resp.Status)
		}
		return fmt.Errorf("tts: connect failed: %w", err)
	}
	defer conn.Close()

	req := synthesisRequest{
		Text:       text,
		Locale:     locale,
		Voice:      c.voice,
		Format:     "wav",
		SampleRate: c.sampleRate,
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("tts: send request: %w", err)
	}

	for {
		if c.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("tts: read stream: %w", err)
		}
		switch msgType {
		case websocket.BinaryMessage:
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("tts: write audio: %w", err)
			}
		case websocket.TextMessage:
			var status synthesisStatus
			if err := json.Unmarshal(data, &status); err != nil {
				return fmt.Errorf("tts: bad status frame: %w", err)
			}
			if status.Code != 0 {
				return fmt.Errorf("%w: code=%d message=%s", ErrServiceFailed, status.Code, status.Message)
			}
			// Zero status is the end-of-stream marker.
			return nil
		}
	}
}
