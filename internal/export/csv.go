// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export turns the current record sequence into downloadable
// files: CSV rendered locally, XLSX rendered by the spreadsheet endpoint.
package export

import (
	"strconv"
	"strings"

	"github.com/pdiddy/signage-review/pkg/types"
)

// Download names of the exported artifacts.
const (
	CSVFileName         = "sinalizacao.csv"
	SpreadsheetFileName = "sinalizacao.xlsx"
)

// CSVHeader is the fixed header row, in column order.
var CSVHeader = []string{"Tipologia", "Código", "Descrição", "Pavimento", "Quantidade"}

// CSVOptions tunes CSV rendering.
type CSVOptions struct {
	// EscapeQuotes doubles quote characters inside text fields. Without
	// it, embedded quotes are written as-is.
	EscapeQuotes bool
}

// CSV renders records as comma-separated text: the header row, then one
// row per record with text fields wrapped in double quotes and the
// quantity as a bare integer. Rows are separated by "\n" with no
// trailing newline. The output depends only on its inputs.
func CSV(recs []types.SignageRecord, opts CSVOptions) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(CSVHeader, ","))
	for _, r := range recs {
		b.WriteByte('\n')
		for _, text := range []string{r.Typology, r.Code, r.Description, r.Floor} {
			b.WriteString(quote(text, opts.EscapeQuotes))
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(r.Quantity))
	}
	return []byte(b.String())
}

func quote(s string, escape bool) string {
	if escape {
		s = strings.ReplaceAll(s, `"`, `""`)
	}
	return `"` + s + `"`
}
