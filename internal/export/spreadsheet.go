package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/signage-review/internal/httputil"
	"github.com/pdiddy/signage-review/pkg/types"
)

const spreadsheetPath = "/api/gerar-excel"

// MsgSpreadsheetFailed is the user-visible message for any spreadsheet
// failure.
const MsgSpreadsheetFailed = "Erro ao gerar planilha Excel"

// ErrSpreadsheetFailed is returned when the spreadsheet endpoint could
// not be reached or did not answer 2xx.
var ErrSpreadsheetFailed = errors.New(MsgSpreadsheetFailed)

type spreadsheetRequest struct {
	Dados []types.SignageRecord `json:"dados"`
}

// SpreadsheetClient requests server-rendered XLSX workbooks.
type SpreadsheetClient struct {
	HTTP       *http.Client
	BaseURL    string
	UserAgent  string
	MaxRetries int
	Logger     *slog.Logger
}

// NewSpreadsheetClient builds a client from configuration.
func NewSpreadsheetClient(server types.ServerConfig, cfg types.HTTPConfig, logger *slog.Logger) *SpreadsheetClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpreadsheetClient{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		BaseURL:    strings.TrimRight(server.URL, "/"),
		UserAgent:  cfg.UserAgent,
		MaxRetries: httputil.ConfiguredRetries(cfg.MaxRetries),
		Logger:     logger,
	}
}

// Render posts the records as JSON and returns the workbook bytes
// unchanged. Every failure wraps ErrSpreadsheetFailed.
func (c *SpreadsheetClient) Render(ctx context.Context, recs []types.SignageRecord) ([]byte, error) {
	start := time.Now()
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	payload, err := json.Marshal(spreadsheetRequest{Dados: recs})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling records: %v", ErrSpreadsheetFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+spreadsheetPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrSpreadsheetFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries, logger)
	if err != nil {
		logger.Error("export.xlsx.failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrSpreadsheetFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := serverDetail(resp.Body)
		logger.Error("export.xlsx.failed", "status", resp.StatusCode, "detail", detail)
		return nil, fmt.Errorf("%w: HTTP %d %s", ErrSpreadsheetFailed, resp.StatusCode, detail)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("export.xlsx.failed", "err", err)
		return nil, fmt.Errorf("%w: reading workbook: %w", ErrSpreadsheetFailed, err)
	}

	logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}

// serverDetail extracts the optional {"error": ...} message for logs.
func serverDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return ""
	}
	var er struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &er) == nil {
		return er.Error
	}
	return ""
}
