package dispatch

import (
	"context"
	"errors"

	"genesys/internal/perception"
	"genesys/internal/sequence"
	"genesys/internal/structure"
	"genesys/internal/tabular"
	"genesys/internal/tools"
	"genesys/internal/upload"
	"genesys/internal/visual"
)

// userMessages maps each error kind to the text shown at the request
// boundary. Order matters: the first match wins.
var userMessages = []struct {
	err error
	msg string
}{
	{upload.ErrFileNotFound, "The file could not be found."},
	{upload.ErrUnsupportedFileType, "Unsupported file type. Upload a FASTA, CSV or PDB file."},
	{upload.ErrDecode, "The file is not valid UTF-8 text."},
	{upload.ErrFileTooLarge, "The file is too large."},
	{sequence.ErrParse, "The FASTA file could not be parsed."},
	{sequence.ErrEmptySequenceSet, "The FASTA file contains no sequences."},
	{sequence.ErrUnsupportedAlphabet, "That analysis does not apply to this sequence type."},
	{sequence.ErrEmptyMotif, "Please give a motif to search for."},
	{sequence.ErrUnknownEnzyme, "Unknown restriction enzyme."},
	{sequence.ErrInsufficientRecords, "This analysis needs at least two sequences."},
	{sequence.ErrInvalidMinLength, "The minimum reading frame length must be at least 1."},
	{tools.ErrUnknownFunction, "The requested analysis function does not exist."},
	{tools.ErrMissingRequiredArg, "A required argument is missing."},
	{tools.ErrInvalidArgType, "An argument has the wrong type."},
	{perception.ErrModelUnavailable, "The language model is unavailable right now. Please try again later."},
	{perception.ErrMalformedToolCall, "The language model returned an unreadable function call. Please rephrase the question."},
	{context.DeadlineExceeded, "The request timed out. Please try again later."},
	{visual.ErrInvalidOptions, "Invalid display options."},
	{tabular.ErrEmptyTable, "The CSV file is empty."},
	{tabular.ErrMalformed, "The CSV file could not be parsed."},
	{structure.ErrNoStructure, "The PDB file contains no structure records."},
}

// UserMessage converts an error to the message shown to the user. The
// wrapped detail is appended so the message stays actionable.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			if err.Error() == m.err.Error() {
				return m.msg
			}
			return m.msg + " (" + err.Error() + ")"
		}
	}
	return "Something went wrong: " + err.Error()
}

// IsClientError reports whether err was caused by the input rather than by
// the model or the server.
func IsClientError(err error) bool {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.err != perception.ErrModelUnavailable &&
				m.err != perception.ErrMalformedToolCall &&
				m.err != context.DeadlineExceeded
		}
	}
	return false
}
