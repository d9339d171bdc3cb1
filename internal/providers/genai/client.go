package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"animator/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("gemini: api key is required")

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client talks to the long-running video endpoints of the Gemini API: it
// creates operations, reads their status and downloads finished videos. Every
// call authenticates with the `key` query parameter.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// VideoRequest represents the information required to start a video operation.
type VideoRequest struct {
	Prompt         string
	ImageBase64    string
	MIMEType       string
	NumberOfVideos int
}

// Operation is the decoded state of a long-running video operation.
type Operation struct {
	Name   string
	Done   bool
	Error  *OperationError
	Videos []GeneratedVideo
	// FilteredReasons lists safety filter explanations when samples were dropped.
	FilteredReasons []string
}

// OperationError is the failure payload of an operation.
type OperationError struct {
	Code    int
	Status  string
	Message string
}

// GeneratedVideo points at a finished sample.
type GeneratedVideo struct {
	URI      string
	MIMEType string
}

// FirstVideoURI returns the location of the first generated video. Later
// samples are never consulted.
func (o *Operation) FirstVideoURI() string {
	if o == nil {
		return ""
	}
	if len(o.Videos) == 0 {
		return ""
	}
	return strings.TrimSpace(o.Videos[0].URI)
}

// APIError is returned for non-success HTTP responses.
type APIError struct {
	StatusCode int
	StatusText string
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("gemini: ")
	if e.StatusText != "" {
		b.WriteString("status ")
		b.WriteString(e.StatusText)
	} else {
		fmt.Fprintf(&b, "status %d", e.StatusCode)
	}
	if e.Status != "" {
		b.WriteString(" (")
		b.WriteString(e.Status)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string        `json:"prompt"`
	Image  *predictImage `json:"image,omitempty"`
}

type predictImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type predictParameters struct {
	SampleCount int `json:"sampleCount"`
}

type videoRef struct {
	URI      string `json:"uri"`
	Encoding string `json:"encoding,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

type operationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse *struct {
			GeneratedSamples []struct {
				Video *videoRef `json:"video"`
			} `json:"generatedSamples"`
			RaiMediaFilteredReasons []string `json:"raiMediaFilteredReasons"`
		} `json:"generateVideoResponse"`
		GeneratedVideos []struct {
			Video *videoRef `json:"video"`
		} `json:"generatedVideos"`
	} `json:"response,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with a generous timeout will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("gemini: invalid base url: %w", err)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "veo-2.0-generate-001"
	}

	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured video model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// GenerateVideos starts a video operation from an image and a prompt.
func (c *Client) GenerateVideos(ctx context.Context, req VideoRequest) (*Operation, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	count := req.NumberOfVideos
	if count <= 0 {
		count = 1
	}
	instance := predictInstance{Prompt: req.Prompt}
	if req.ImageBase64 != "" {
		instance.Image = &predictImage{
			BytesBase64Encoded: req.ImageBase64,
			MimeType:           req.MIMEType,
		}
	}
	payload := predictRequest{
		Instances:  []predictInstance{instance},
		Parameters: predictParameters{SampleCount: count},
	}

	var resp operationResponse
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.model))
	if err := c.invoke(ctx, http.MethodPost, c.baseURL+path, payload, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Name) == "" && !resp.Done {
		return nil, errors.New("gemini: operation name missing from response")
	}

	op := resp.toOperation()
	c.logger.Debug().
		Str("model", c.model).
		Str("operation", op.Name).
		Msg("genai: video operation created")
	return op, nil
}

// GetOperation fetches the current state of a video operation.
func (c *Client) GetOperation(ctx context.Context, name string) (*Operation, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return nil, errors.New("gemini: operation name is required")
	}
	var resp operationResponse
	if err := c.invoke(ctx, http.MethodGet, c.baseURL+"/"+name, nil, &resp); err != nil {
		return nil, err
	}
	op := resp.toOperation()
	if op.Name == "" {
		op.Name = name
	}
	return op, nil
}

// Download fetches a generated file. The API key is appended to the URI as the
// `key` query parameter.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, string, error) {
	if !c.HasCredentials() {
		return nil, "", ErrMissingAPIKey
	}
	target := strings.TrimSpace(uri)
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(target, "/")
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, "", fmt.Errorf("gemini: invalid download uri: %w", err)
	}
	q := parsed.Query()
	q.Set("key", c.apiKey)
	parsed.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("gemini: create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("gemini: download video: %w", redactKey(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, "", &APIError{StatusCode: resp.StatusCode, StatusText: resp.Status}
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("gemini: read video: %w", err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

func (c *Client) invoke(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("gemini: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("gemini: create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: %s request: %w", strings.ToLower(method), redactKey(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, StatusText: resp.Status}
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Error.Message != "" {
			apiErr.Status = detail.Error.Status
			apiErr.Message = detail.Error.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("gemini: decode response: %w", err)
	}
	return nil
}

func (r operationResponse) toOperation() *Operation {
	op := &Operation{
		Name: strings.TrimSpace(r.Name),
		Done: r.Done,
	}
	if r.Error != nil {
		op.Error = &OperationError{
			Code:    r.Error.Code,
			Status:  r.Error.Status,
			Message: r.Error.Message,
		}
	}
	if r.Response == nil {
		return op
	}
	if gv := r.Response.GenerateVideoResponse; gv != nil {
		for _, sample := range gv.GeneratedSamples {
			if sample.Video != nil {
				op.Videos = append(op.Videos, GeneratedVideo{URI: sample.Video.URI, MIMEType: firstNonEmpty(sample.Video.MimeType, sample.Video.Encoding)})
			}
		}
		op.FilteredReasons = gv.RaiMediaFilteredReasons
	}
	for _, generated := range r.Response.GeneratedVideos {
		if generated.Video != nil {
			op.Videos = append(op.Videos, GeneratedVideo{URI: generated.Video.URI, MIMEType: generated.Video.MimeType})
		}
	}
	return op
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// redactKey drops the `key` query parameter from the URL that net/http puts in
// transport errors.
func redactKey(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	return &url.Error{Op: uerr.Op, URL: stripKey(uerr.URL), Err: uerr.Err}
}

func stripKey(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}
	q := parsed.Query()
	if !q.Has("key") {
		return raw
	}
	q.Del("key")
	parsed.RawQuery = q.Encode()
	return parsed.String()
}
