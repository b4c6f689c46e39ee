// Package genai drives the image model behind subject extraction, image
// generation and depth-map creation. The model is an opaque image-to-image
// transform reached over HTTP; every operation that can degrade gracefully
// carries a local fallback so mold generation keeps working when the model
// is unreachable.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/candlr-app/candlr/internal/httputil"
)

// ErrUnavailable reports that the image model could not be reached or
// declined the request. Callers fall back to local processing where the
// operation allows it.
var ErrUnavailable = errors.New("image model unavailable")

// Transformer is the opaque image transform: given a textual directive and
// an optional source image (nil for pure text-to-image), it returns a
// derived image as PNG bytes.
type Transformer interface {
	Transform(ctx context.Context, directive string, imagePNG []byte) ([]byte, error)
	// Model identifies the backing model for response metadata.
	Model() string
}

// Client calls a generative image endpoint over HTTP. The request and
// response shapes follow the inline-data convention of the hosted Gemini
// API: the directive and base64 image go out, one base64 image comes back.
type Client struct {
	HTTP     httputil.HTTPClient
	Endpoint string
	APIKey   string
	ModelID  string
}

// NewClient builds a client; http may be nil to use the default client.
func NewClient(endpoint, apiKey, modelID string, http httputil.HTTPClient) *Client {
	if http == nil {
		http = httputil.NewStandardClient(nil)
	}
	return &Client{HTTP: http, Endpoint: endpoint, APIKey: apiKey, ModelID: modelID}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.ModelID }

type transformRequest struct {
	Model     string `json:"model"`
	Directive string `json:"directive"`
	Image     string `json:"image,omitempty"`
}

type transformResponse struct {
	Image string `json:"image"`
	Error string `json:"error,omitempty"`
}

// Transform posts the directive (and source image, when given) to the
// endpoint. Any transport or protocol failure maps to ErrUnavailable so
// callers can take their fallback path.
func (c *Client) Transform(ctx context.Context, directive string, imagePNG []byte) ([]byte, error) {
	if c.Endpoint == "" || c.APIKey == "" {
		return nil, fmt.Errorf("%w: endpoint not configured", ErrUnavailable)
	}

	reqBody := transformRequest{Model: c.ModelID, Directive: directive}
	if imagePNG != nil {
		reqBody.Image = base64.StdEncoding.EncodeToString(imagePNG)
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out transformResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, out.Error)
	}
	img, err := base64.StdEncoding.DecodeString(out.Image)
	if err != nil || len(img) == 0 {
		return nil, fmt.Errorf("%w: empty or malformed image in response", ErrUnavailable)
	}
	return img, nil
}
