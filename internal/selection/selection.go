// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selection validates and holds the single PDF a user picked or
// dropped for extraction, and tracks the drag-over affordance.
package selection

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFMediaType is the only media type accepted for extraction.
const PDFMediaType = "application/pdf"

// MsgUnsupportedType is the user-visible message for rejected files.
const MsgUnsupportedType = "Por favor, selecione um arquivo PDF válido"

// ErrUnsupportedType is returned when a candidate is not a PDF.
var ErrUnsupportedType = errors.New("unsupported file type")

// Candidate is a file offered by a picker or a drop, not yet validated.
type Candidate struct {
	Name     string
	MIMEType string
	Data     []byte
}

// FileRef is an accepted PDF held in memory.
type FileRef struct {
	Name     string
	MIMEType string
	Data     []byte

	// Pages is the page count reported by the PDF reader, or 0 when the
	// document could not be read. It is informational only.
	Pages int
}

// Size returns the payload size in bytes.
func (f FileRef) Size() int { return len(f.Data) }

// CandidateFromPath reads a file from disk. The MIME type comes from the
// file extension, as a browser file picker would report it, and falls
// back to content sniffing for unknown extensions.
func CandidateFromPath(path string) (Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("reading %s: %w", path, err)
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	return Candidate{Name: filepath.Base(path), MIMEType: mt, Data: data}, nil
}

// IsPDF reports whether a media type denotes a PDF. Parameters and case
// are ignored.
func IsPDF(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return false
	}
	return mt == PDFMediaType
}

// PageCounter returns the number of pages of a PDF payload.
type PageCounter func(data []byte) (int, error)

// CountPages reads the page count with pdfcpu.
func CountPages(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), nil)
}

// Selector holds at most one selected PDF and the drag state. It is not
// safe for concurrent use; the workflow controller serializes access.
type Selector struct {
	// CountPages fills FileRef.Pages. Defaults to CountPages.
	CountPages PageCounter

	current    *FileRef
	dragActive bool
}

// Select validates c and, when it is a PDF, replaces the current
// selection. A rejected candidate leaves the previous selection intact.
func (s *Selector) Select(c Candidate) (FileRef, error) {
	if !IsPDF(c.MIMEType) {
		return FileRef{}, fmt.Errorf("%w: %q (%s)", ErrUnsupportedType, c.Name, c.MIMEType)
	}

	ref := FileRef{Name: c.Name, MIMEType: PDFMediaType, Data: c.Data}
	counter := s.CountPages
	if counter == nil {
		counter = CountPages
	}
	if n, err := counter(c.Data); err == nil {
		ref.Pages = n
	}
	s.current = &ref
	return ref, nil
}

// DragEnter marks a drag gesture over the drop target.
func (s *Selector) DragEnter() { s.dragActive = true }

// DragOver keeps the drag affordance active.
func (s *Selector) DragOver() { s.dragActive = true }

// DragLeave clears the drag affordance without selecting anything.
func (s *Selector) DragLeave() { s.dragActive = false }

// Drop ends a drag gesture and validates the dropped candidate. The drag
// affordance is cleared whatever the validation outcome.
func (s *Selector) Drop(c Candidate) (FileRef, error) {
	s.dragActive = false
	return s.Select(c)
}

// DragActive reports whether a drag gesture is over the drop target.
func (s *Selector) DragActive() bool { return s.dragActive }

// Current returns the selected file, if any.
func (s *Selector) Current() (FileRef, bool) {
	if s.current == nil {
		return FileRef{}, false
	}
	return *s.current, true
}

// Clear drops the current selection and the drag state.
func (s *Selector) Clear() {
	s.current = nil
	s.dragActive = false
}
