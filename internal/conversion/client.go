package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/hearlearn/internal/domain"
)

const (
	defaultTimeout = 60 * time.Second
	userAgent      = "HearLearn/1.0"

	pathUpload     = "/iniciar_processamento"
	pathPageText   = "/obter_texto_pagina"
	pathAudioBatch = "/obter_audio_lote"
)

// UploadResult describes a document accepted by the conversion service
type UploadResult struct {
	FileID     string
	Name       string
	TotalPages int
}

// Client talks to the PDF conversion service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a conversion service client. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Upload submits a PDF for conversion
func (c *Client) Upload(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrUploadFailed, path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}

	respBody, err := c.doRequest(ctx, pathUpload, mw.FormDataContentType(), &body)
	if err != nil {
		return nil, wrapKind(domain.ErrUploadFailed, err)
	}

	var resp uploadResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(respBody))
		return nil, fmt.Errorf("%w: failed to parse response: %w", domain.ErrUploadFailed, err)
	}
	if resp.FileID == "" || resp.TotalPages <= 0 {
		return nil, fmt.Errorf("%w: incomplete response (id=%q, pages=%d)", domain.ErrUploadFailed, resp.FileID, resp.TotalPages)
	}

	name := resp.OriginalName
	if name == "" {
		name = filepath.Base(path)
	}
	return &UploadResult{FileID: resp.FileID, Name: name, TotalPages: resp.TotalPages}, nil
}

// PageText returns the extracted text of one 1-based page
func (c *Client) PageText(ctx context.Context, fileID string, page int) (string, error) {
	var resp pageTextResponse
	if err := c.postJSON(ctx, pathPageText, pageTextRequest{FileID: fileID, Page: page}, &resp); err != nil {
		return "", wrapKind(domain.ErrPageFetchFailed, err)
	}
	if resp.Text == nil {
		return "", fmt.Errorf("%w: page %d: response has no text", domain.ErrPageFetchFailed, page)
	}
	return *resp.Text, nil
}

// AudioBatch returns one audio URL per page in [start, end]
func (c *Client) AudioBatch(ctx context.Context, fileID string, start, end int) ([]string, error) {
	var resp audioBatchResponse
	req := audioBatchRequest{FileID: fileID, StartPage: start, EndPage: end}
	if err := c.postJSON(ctx, pathAudioBatch, req, &resp); err != nil {
		return nil, wrapKind(domain.ErrPageFetchFailed, err)
	}
	if want := end - start + 1; len(resp.AudioURLs) != want {
		return nil, fmt.Errorf("%w: pages %d-%d: got %d audio urls, want %d",
			domain.ErrPageFetchFailed, start, end, len(resp.AudioURLs), want)
	}
	for i, u := range resp.AudioURLs {
		if strings.TrimSpace(u) == "" {
			return nil, fmt.Errorf("%w: page %d: response has no audio url", domain.ErrPageFetchFailed, start+i)
		}
	}
	return resp.AudioURLs, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	body, err := c.doRequest(ctx, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("JSON parse error", "error", err, "path", path, "bodyLen", len(body))
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// doRequest performs a POST and returns the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	reqURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("conversion request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("conversion request failed", "url", reqURL, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("conversion request error", "url", reqURL, "status", resp.StatusCode, "body", string(respBody))
		var e errorResponse
		if json.Unmarshal(respBody, &e) == nil && e.message() != "" {
			return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, e.message())
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return respBody, nil
}

// wrapKind tags err with the operation's error kind unless it already carries it
func wrapKind(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
