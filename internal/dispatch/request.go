package dispatch

import (
	"genesys/internal/tools"
	"genesys/internal/upload"
)

// Path records how an answer was produced.
type Path string

const (
	// PathFast is a deterministic answer to a recognised phrase.
	PathFast Path = "fast"

	// PathModel is an answer produced with the language model.
	PathModel Path = "model"

	// PathFallback is a deterministic answer given because the model was unavailable.
	PathFallback Path = "fallback"

	// PathDirect is a function invoked by name without the model.
	PathDirect Path = "direct"
)

// AnalysisRequest is one question about one upload.
type AnalysisRequest struct {
	Question string
	File     upload.UploadedFile

	// AllRecords widens single-sequence functions to every record.
	AllRecords bool
}

// Answer is the outcome of a request.
type Answer struct {
	Text     string          `json:"answer"`
	Path     Path            `json:"path"`
	FileType upload.FileType `json:"file_type"`

	// Function is the analysis function that ran, if any.
	Function string `json:"function,omitempty"`

	// Result is the function output. Result.Error is set when the model
	// asked for a function that failed or does not exist.
	Result *tools.ToolResult `json:"-"`
}
