// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extraction uploads a selected PDF to the external extraction
// service and turns its answer into signage records or a typed failure.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/pdiddy/signage-review/internal/httputil"
	"github.com/pdiddy/signage-review/internal/records"
	"github.com/pdiddy/signage-review/internal/selection"
	"github.com/pdiddy/signage-review/pkg/types"
)

const (
	processPath = "/api/processar-pdf"
	formField   = "file"

	// maxErrorBody caps how much of a failed response is read.
	maxErrorBody = 1 << 20
)

// Metadata describes how the service processed the document.
type Metadata struct {
	TotalChunks     int   `json:"total_chunks" yaml:"total_chunks"`
	ProcessedChunks int   `json:"chunks_processados" yaml:"chunks_processados"`
	FailedChunks    []int `json:"chunks_com_erro,omitempty" yaml:"chunks_com_erro,omitempty"`
	TotalItems      int   `json:"total_itens" yaml:"total_itens"`
}

// Partial reports whether some chunks of the document failed.
func (m *Metadata) Partial() bool {
	return m != nil && len(m.FailedChunks) > 0
}

// Result is a successful extraction.
type Result struct {
	Records  []types.SignageRecord
	Metadata *Metadata
}

type processResponse struct {
	Dados    []map[string]any `json:"dados"`
	Metadata *Metadata        `json:"metadata"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to the extraction service.
type Client struct {
	HTTP       *http.Client
	BaseURL    string
	UserAgent  string
	MaxRetries int
	Logger     *slog.Logger
}

// NewClient builds a client from configuration. The HTTP client carries
// the configured timeout.
func NewClient(server types.ServerConfig, cfg types.HTTPConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		BaseURL:    strings.TrimRight(server.URL, "/"),
		UserAgent:  cfg.UserAgent,
		MaxRetries: httputil.ConfiguredRetries(cfg.MaxRetries),
		Logger:     logger,
	}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// Extract posts file as multipart form data and returns the extracted
// records. A 2xx response without dados yields an empty record list.
// Failures are returned as *Error.
func (c *Client) Extract(ctx context.Context, file selection.FileRef) (*Result, error) {
	start := time.Now()
	log := c.logger().With("file", file.Name, "bytes", file.Size())

	body, contentType, err := multipartBody(file)
	if err != nil {
		return nil, &Error{Kind: ErrNetwork, Message: MsgNetworkFailed, Err: fmt.Errorf("building upload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+processPath, body)
	if err != nil {
		return nil, &Error{Kind: ErrNetwork, Message: MsgNetworkFailed, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, c.MaxRetries, c.logger())
	if err != nil {
		log.Error("extraction.network", "err", err)
		return nil, &Error{Kind: ErrNetwork, Message: MsgNetworkFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := rejection(resp)
		log.Error("extraction.rejected", "status", resp.StatusCode, "message", e.Message)
		return nil, e
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("extraction.read", "err", err)
		return nil, &Error{Kind: ErrNetwork, StatusCode: resp.StatusCode, Message: MsgNetworkFailed, Err: err}
	}

	result, err := decodeResult(data)
	if err != nil {
		log.Error("extraction.invalid", "err", err)
		return nil, &Error{Kind: ErrInvalidResponse, StatusCode: resp.StatusCode, Message: MsgProcessingFailed, Err: err}
	}

	log.Info("extraction.ok",
		"records", len(result.Records),
		"pages", file.Pages,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if result.Metadata.Partial() {
		log.Warn("extraction.partial", "failed_chunks", result.Metadata.FailedChunks)
	}
	return result, nil
}

// decodeResult validates and decodes a 2xx body. Empty bodies count as
// an empty result.
func decodeResult(data []byte) (*Result, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Result{Records: records.ReplaceAll(nil)}, nil
	}
	if err := validateEnvelope(data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var pr processResponse
	if err := dec.Decode(&pr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &Result{Records: records.ReplaceAll(pr.Dados), Metadata: pr.Metadata}, nil
}

// rejection maps a non-2xx response to an *Error, using the server's
// error message verbatim when it sent one.
func rejection(resp *http.Response) *Error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		var er errorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			return &Error{Kind: ErrServerRejected, StatusCode: resp.StatusCode, Message: er.Error}
		}
	}
	return &Error{
		Kind:       ErrServerRejectedNoMessage,
		StatusCode: resp.StatusCode,
		Message:    MsgProcessingFailed,
		Err:        fmt.Errorf("HTTP %d from %s", resp.StatusCode, resp.Request.URL.Path),
	}
}

// multipartBody encodes file under the "file" form field.
func multipartBody(file selection.FileRef) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, file.Name))
	h.Set("Content-Type", selection.PDFMediaType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
