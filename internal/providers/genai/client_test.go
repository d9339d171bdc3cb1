package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type captureTransport struct {
	responses map[string]responseStub
	requests  []*http.Request
	lastBody  []byte
}

type responseStub struct {
	status int
	header http.Header
	body   []byte
}

func newCaptureTransport() *captureTransport {
	return &captureTransport{responses: map[string]responseStub{}}
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.requests = append(c.requests, req)
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	if stub, ok := c.responses[req.Method+" "+req.URL.Path]; ok {
		return stub.toResponse(), nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSON(method, path string, status int, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[method+" "+path] = responseStub{
		status: status,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   body,
	}
}

func (s responseStub) toResponse() *http.Response {
	header := http.Header{}
	for k, values := range s.header {
		header[k] = append([]string(nil), values...)
	}
	return &http.Response{
		StatusCode: s.status,
		Status:     fmt.Sprintf("%d %s", s.status, http.StatusText(s.status)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}

func newTestClient(t *testing.T, transport http.RoundTripper, key string) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     key,
		BaseURL:    "https://api.example.com/v1beta/",
		Model:      "veo-2.0-generate-001",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGenerateVideosPayload(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSON(http.MethodPost, "/v1beta/models/veo-2.0-generate-001:predictLongRunning", http.StatusOK, map[string]any{
		"name": "models/veo-2.0-generate-001/operations/op-1",
	})
	client := newTestClient(t, transport, "secret")

	op, err := client.GenerateVideos(context.Background(), VideoRequest{
		Prompt:         "cat dances",
		ImageBase64:    "aGVsbG8=",
		MIMEType:       "image/png",
		NumberOfVideos: 1,
	})
	if err != nil {
		t.Fatalf("GenerateVideos: %v", err)
	}
	if op.Name != "models/veo-2.0-generate-001/operations/op-1" {
		t.Fatalf("operation name = %q", op.Name)
	}
	if op.Done {
		t.Fatal("expected operation to be pending")
	}

	req := transport.requests[0]
	if got := req.URL.Query().Get("key"); got != "secret" {
		t.Fatalf("key query = %q, want secret", got)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	instances := payload["instances"].([]any)
	if len(instances) != 1 {
		t.Fatalf("instances len = %d, want 1", len(instances))
	}
	instance := instances[0].(map[string]any)
	if instance["prompt"] != "cat dances" {
		t.Fatalf("prompt = %v", instance["prompt"])
	}
	image := instance["image"].(map[string]any)
	if image["bytesBase64Encoded"] != "aGVsbG8=" || image["mimeType"] != "image/png" {
		t.Fatalf("image = %v", image)
	}
	params := payload["parameters"].(map[string]any)
	if params["sampleCount"] != float64(1) {
		t.Fatalf("sampleCount = %v, want 1", params["sampleCount"])
	}
}

func TestGenerateVideosAPIErrorCarriesStatus(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSON(http.MethodPost, "/v1beta/models/veo-2.0-generate-001:predictLongRunning", http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{
			"code":    429,
			"message": "Quota exceeded for aiplatform.googleapis.com",
			"status":  "RESOURCE_EXHAUSTED",
		},
	})
	client := newTestClient(t, transport, "secret")

	_, err := client.GenerateVideos(context.Background(), VideoRequest{Prompt: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("StatusCode = %d", apiErr.StatusCode)
	}
	msg := err.Error()
	if !strings.Contains(msg, "RESOURCE_EXHAUSTED") || !strings.Contains(msg, "Quota exceeded") {
		t.Fatalf("error text %q lacks remote detail", msg)
	}
}

func TestMissingAPIKeySkipsNetwork(t *testing.T) {
	calls := 0
	client := newTestClient(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("unexpected call")
	}), "  ")

	if client.HasCredentials() {
		t.Fatal("expected no credentials")
	}
	if _, err := client.GenerateVideos(context.Background(), VideoRequest{Prompt: "x"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("GenerateVideos error = %v, want ErrMissingAPIKey", err)
	}
	if _, err := client.GetOperation(context.Background(), "operations/1"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("GetOperation error = %v, want ErrMissingAPIKey", err)
	}
	if _, _, err := client.Download(context.Background(), "https://files.example.com/v"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Download error = %v, want ErrMissingAPIKey", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network calls, got %d", calls)
	}
}

func TestGetOperationDecodesSamples(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSON(http.MethodGet, "/v1beta/models/veo-2.0-generate-001/operations/op-1", http.StatusOK, map[string]any{
		"name": "models/veo-2.0-generate-001/operations/op-1",
		"done": true,
		"response": map[string]any{
			"@type": "type.googleapis.com/google.ai.generativelanguage.v1beta.PredictLongRunningResponse",
			"generateVideoResponse": map[string]any{
				"generatedSamples": []any{
					map[string]any{"video": map[string]any{"uri": "https://files.example.com/v1beta/files/abc:download?alt=media"}},
					map[string]any{"video": map[string]any{"uri": "https://files.example.com/v1beta/files/def:download?alt=media"}},
				},
			},
		},
	})
	client := newTestClient(t, transport, "secret")

	op, err := client.GetOperation(context.Background(), "models/veo-2.0-generate-001/operations/op-1")
	if err != nil {
		t.Fatalf("GetOperation: %v", err)
	}
	if !op.Done || op.Error != nil {
		t.Fatalf("unexpected operation state %+v", op)
	}
	if got := op.FirstVideoURI(); got != "https://files.example.com/v1beta/files/abc:download?alt=media" {
		t.Fatalf("FirstVideoURI() = %q", got)
	}
	if transport.requests[0].URL.Query().Get("key") != "secret" {
		t.Fatal("status query is missing the key parameter")
	}
}

func TestGetOperationDecodesError(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSON(http.MethodGet, "/v1beta/operations/op-2", http.StatusOK, map[string]any{
		"name": "operations/op-2",
		"done": true,
		"error": map[string]any{
			"code":    3,
			"message": "prompt was blocked",
		},
	})
	client := newTestClient(t, transport, "secret")

	op, err := client.GetOperation(context.Background(), "operations/op-2")
	if err != nil {
		t.Fatalf("GetOperation: %v", err)
	}
	if op.Error == nil || op.Error.Message != "prompt was blocked" {
		t.Fatalf("operation error = %+v", op.Error)
	}
	if op.FirstVideoURI() != "" {
		t.Fatal("expected no video for failed operation")
	}
}

func TestDownloadAppendsKeyToExistingQuery(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		captured = r
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Header:     http.Header{"Content-Type": []string{"video/mp4"}},
			Body:       io.NopCloser(bytes.NewReader([]byte("mp4-bytes"))),
		}, nil
	}), "secret")

	data, mime, err := client.Download(context.Background(), "https://files.example.com/v1beta/files/abc:download?alt=media")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "mp4-bytes" || mime != "video/mp4" {
		t.Fatalf("Download = %q %q", data, mime)
	}
	q := captured.URL.Query()
	if q.Get("alt") != "media" || q.Get("key") != "secret" {
		t.Fatalf("download query = %v", q)
	}
}

func TestDownloadNonSuccessCarriesStatusText(t *testing.T) {
	client := newTestClient(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusForbidden,
			Status:     "403 Forbidden",
			Body:       io.NopCloser(strings.NewReader("denied")),
		}, nil
	}), "secret")

	_, _, err := client.Download(context.Background(), "https://files.example.com/v")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if !strings.Contains(err.Error(), "403 Forbidden") {
		t.Fatalf("error %q lacks status text", err)
	}
}

func TestFirstVideoURIReadsOnlyFirstSample(t *testing.T) {
	op := &Operation{Done: true, Videos: []GeneratedVideo{
		{URI: "  "},
		{URI: "https://files.example.com/v1beta/files/def:download?alt=media"},
	}}
	if got := op.FirstVideoURI(); got != "" {
		t.Fatalf("FirstVideoURI() = %q, want empty", got)
	}
	var nilOp *Operation
	if nilOp.FirstVideoURI() != "" {
		t.Fatal("nil operation should have no video")
	}
}

func TestTransportErrorsOmitKey(t *testing.T) {
	const key = "AIzaSyD4290secretKEY"
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := NewClient(Options{APIKey: key, BaseURL: base})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	_, createErr := client.GenerateVideos(ctx, VideoRequest{Prompt: "cat", ImageBase64: "cG5n", MIMEType: "image/png"})
	_, statusErr := client.GetOperation(ctx, "operations/op-1")
	_, _, downloadErr := client.Download(ctx, base+"/files/abc:download?alt=media")

	for name, err := range map[string]error{"create": createErr, "status": statusErr, "download": downloadErr} {
		if err == nil {
			t.Fatalf("%s: expected transport error", name)
		}
		if strings.Contains(err.Error(), key) {
			t.Fatalf("%s error leaks key: %v", name, err)
		}
		var uerr *url.Error
		if !errors.As(err, &uerr) {
			t.Fatalf("%s error = %T, want *url.Error in chain", name, err)
		}
	}
	if !strings.Contains(downloadErr.Error(), "alt=media") {
		t.Fatalf("download error dropped the rest of the query: %v", downloadErr)
	}
}

func TestRedactKeyLeavesOtherErrorsAlone(t *testing.T) {
	plain := errors.New("boom")
	if redactKey(plain) != plain {
		t.Fatal("non-url error should pass through")
	}
	uerr := &url.Error{Op: "Get", URL: "https://files.example.com/v?alt=media", Err: plain}
	if got := redactKey(uerr).Error(); got != uerr.Error() {
		t.Fatalf("redactKey changed keyless url: %q", got)
	}
}
