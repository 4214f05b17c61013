package damonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Failure reasons reported for non-2xx responses.
const (
	AskFailedReason    = "The spirits are silent."
	UploadFailedReason = "Upload failed"
)

// StatusError is returned when the service answers with a non-2xx status.
// Its message is the persona-facing reason; the status is kept for logs.
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string { return e.Reason }

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse is the reply of POST /ask.
type AskResponse struct {
	Response string `json:"response"`
}

// UploadResponse is the reply of POST /upload.
type UploadResponse struct {
	Message string `json:"message"`
}

// Client is a client for the Damon service API
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new Client. A zero timeout means no client-side timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Ask sends a question and returns the assistant's answer.
func (c *Client) Ask(ctx context.Context, query string) (string, error) {
	url := fmt.Sprintf("%s/ask", c.baseURL)

	body, err := json.Marshal(AskRequest{Query: query})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var out AskResponse
	if err := c.do(req, AskFailedReason, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// Upload posts a document as the multipart field "file" and returns the
// service's confirmation text.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	url := fmt.Sprintf("%s/upload", c.baseURL)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out UploadResponse
	if err := c.do(req, UploadFailedReason, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) do(req *http.Request, reason string, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Reason: reason}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
