package workflow

import (
	"github.com/pdiddy/signage-review/internal/extraction"
	"github.com/pdiddy/signage-review/internal/records"
	"github.com/pdiddy/signage-review/internal/selection"
	"github.com/pdiddy/signage-review/pkg/types"
)

// Phase is the lifecycle stage of the workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// State is the workflow state owned by a Controller.
type State struct {
	// SelectedFile is the PDF awaiting or having gone through extraction.
	SelectedFile *selection.FileRef

	// Records is the current record sequence in display order.
	Records []types.SignageRecord

	Phase Phase

	// ErrorMessage is set only while Phase is PhaseError.
	ErrorMessage string

	// Metadata comes from the last successful extraction.
	Metadata *extraction.Metadata

	// DragActive mirrors the drag-over affordance.
	DragActive bool
}

// HasFile reports whether a file is selected.
func (s State) HasFile() bool { return s.SelectedFile != nil }

// clone returns a copy of s that shares no mutable memory with it.
func (s State) clone() State {
	out := s
	if s.SelectedFile != nil {
		f := *s.SelectedFile
		f.Data = append([]byte(nil), s.SelectedFile.Data...)
		out.SelectedFile = &f
	}
	out.Records = records.Clone(s.Records)
	if s.Metadata != nil {
		m := *s.Metadata
		m.FailedChunks = append([]int(nil), s.Metadata.FailedChunks...)
		out.Metadata = &m
	}
	return out
}
