package upload

import "errors"

// Sentinel errors for the upload boundary.
var (
	// ErrFileNotFound is returned when the input path does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFileType is returned when neither the extension nor the
	// content identifies FASTA, CSV or PDB.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrDecode is returned when the content is not valid UTF-8 text.
	ErrDecode = errors.New("file content is not valid UTF-8 text")

	// ErrFileTooLarge is returned when an upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")
)
