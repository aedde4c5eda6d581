package review

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/signage-review/pkg/types"
)

// FormatRecords prints records as a fixed-width table with 1-based row
// numbers, matching the indices accepted by set.
func FormatRecords(w io.Writer, recs []types.SignageRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}

	fmt.Fprintf(w, "%-4s  %s  %s  %s  %s  %s\n",
		"Row", pad("Tipologia", 10), pad("Código", 8), pad("Descrição", 40), pad("Pavimento", 10), "Qtd")
	fmt.Fprintln(w, strings.Repeat("-", 86))

	for i, r := range recs {
		fmt.Fprintf(w, "%-4d  %s  %s  %s  %s  %d\n",
			i+1, pad(r.Typology, 10), pad(r.Code, 8), pad(r.Description, 40), pad(r.Floor, 10), r.Quantity)
	}

	fmt.Fprintf(w, "\n%d records\n", len(recs))
}

// pad truncates or pads s to width runes. Printf widths count bytes,
// which misaligns accented text.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		r := []rune(s)
		return string(r[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-n)
}
