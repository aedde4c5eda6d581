// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/signage-review/internal/httputil"
	"github.com/pdiddy/signage-review/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

var sample = []types.SignageRecord{
	{Typology: "A", Code: "S1", Description: "Saída", Floor: "1", Quantity: 3},
	{Typology: "B", Code: "S2", Description: "Escada", Floor: "Térreo", Quantity: 0},
}

func TestCSV_Format(t *testing.T) {
	got := string(CSV(sample[:1], CSVOptions{}))
	want := "Tipologia,Código,Descrição,Pavimento,Quantidade\n" +
		`"A","S1","Saída","1",3`
	assert.Equal(t, want, got)
}

func TestCSV_MultipleRows(t *testing.T) {
	got := string(CSV(sample, CSVOptions{}))
	want := "Tipologia,Código,Descrição,Pavimento,Quantidade\n" +
		`"A","S1","Saída","1",3` + "\n" +
		`"B","S2","Escada","Térreo",0`
	assert.Equal(t, want, got)
}

func TestCSV_EmptyRecordsHeaderOnly(t *testing.T) {
	assert.Equal(t, "Tipologia,Código,Descrição,Pavimento,Quantidade", string(CSV(nil, CSVOptions{})))
}

func TestCSV_DefaultsForZeroRecord(t *testing.T) {
	got := string(CSV([]types.SignageRecord{{}}, CSVOptions{}))
	assert.Equal(t, "Tipologia,Código,Descrição,Pavimento,Quantidade\n"+`"","","","",0`, got)
}

func TestCSV_Idempotent(t *testing.T) {
	first := CSV(sample, CSVOptions{})
	second := CSV(sample, CSVOptions{})
	assert.Equal(t, first, second)
}

func TestCSV_Quotes(t *testing.T) {
	recs := []types.SignageRecord{{Description: `Placa "Saída"`, Quantity: 1}}

	raw := string(CSV(recs, CSVOptions{}))
	assert.Contains(t, raw, `"Placa "Saída""`)

	escaped := string(CSV(recs, CSVOptions{EscapeQuotes: true}))
	assert.Contains(t, escaped, `"Placa ""Saída"""`)
}

// workbook renders records the way the spreadsheet endpoint does, so the
// fake server returns a real XLSX payload.
func workbook(t *testing.T, recs []types.SignageRecord) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sinalização"
	idx, err := f.NewSheet(sheet)
	require.NoError(t, err)
	f.SetActiveSheet(idx)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	for i, h := range []string{"tipologia", "codigo", "descricao", "pavimento", "quantidade"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	for r, rec := range recs {
		for c, v := range []any{rec.Typology, rec.Code, rec.Description, rec.Floor, rec.Quantity} {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRender_Success(t *testing.T) {
	wb := workbook(t, sample)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/gerar-excel", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Dados []types.SignageRecord `json:"dados"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, sample, body.Dados)

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write(wb)
	}))
	defer ts.Close()

	c := &SpreadsheetClient{HTTP: ts.Client(), BaseURL: ts.URL}
	data, err := c.Render(context.Background(), sample)
	require.NoError(t, err)

	summary, err := InspectSpreadsheet(data)
	require.NoError(t, err)
	assert.Equal(t, "Sinalização", summary.Sheet)
	assert.Equal(t, []string{"tipologia", "codigo", "descricao", "pavimento", "quantidade"}, summary.Header)
	assert.Equal(t, 2, summary.Rows)
}

func TestRender_WireFieldNames(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if !assert.Len(t, body["dados"], 2) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		row := body["dados"][0]
		assert.Equal(t, "A", row["tipologia"])
		assert.Equal(t, "S1", row["codigo"])
		assert.Equal(t, "Saída", row["descricao"])
		assert.Equal(t, "1", row["pavimento"])
		assert.Equal(t, float64(3), row["quantidade"])
		w.Write([]byte("xlsx"))
	}))
	defer ts.Close()

	c := &SpreadsheetClient{HTTP: ts.Client(), BaseURL: ts.URL}
	data, err := c.Render(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx"), data)
}

func TestRender_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error with message", http.StatusBadRequest, `{"error":"Nenhum dado fornecido"}`},
		{"server error without body", http.StatusInternalServerError, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			c := &SpreadsheetClient{HTTP: ts.Client(), BaseURL: ts.URL}
			_, err := c.Render(context.Background(), sample)
			assert.ErrorIs(t, err, ErrSpreadsheetFailed)
		})
	}
}

func TestRender_NetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := &SpreadsheetClient{HTTP: &http.Client{Timeout: time.Second}, BaseURL: url}
	_, err := c.Render(context.Background(), sample)
	assert.ErrorIs(t, err, ErrSpreadsheetFailed)
}

func TestInspectSpreadsheet_NotAWorkbook(t *testing.T) {
	_, err := InspectSpreadsheet([]byte("definitely not a zip"))
	assert.Error(t, err)
}

func TestDirDownloader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	d := DirDownloader{Dir: dir}

	require.NoError(t, d.Download(CSVFileName, []byte("first")))
	require.NoError(t, d.Download(CSVFileName, []byte("second")))

	data, err := os.ReadFile(filepath.Join(dir, CSVFileName))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestDirDownloader_StripsDirectories(t *testing.T) {
	d := DirDownloader{Dir: "/tmp/out"}
	assert.Equal(t, filepath.Join("/tmp/out", "sinalizacao.csv"), d.Path("../../sinalizacao.csv"))
}
