package sequence

import "errors"

var (
	// ErrParse is returned for malformed FASTA input.
	ErrParse = errors.New("malformed FASTA")

	// ErrEmptySequenceSet is returned when the input holds no records.
	ErrEmptySequenceSet = errors.New("no sequences found")

	// ErrUnsupportedAlphabet is returned when an operation is applied to
	// residues it is not defined for (e.g. complementing a protein).
	ErrUnsupportedAlphabet = errors.New("unsupported alphabet for this operation")

	// ErrEmptyMotif is returned by FindMotif for a zero-length motif.
	ErrEmptyMotif = errors.New("motif must not be empty")

	// ErrUnknownEnzyme is returned for an enzyme name missing from the table.
	ErrUnknownEnzyme = errors.New("unknown restriction enzyme")

	// ErrInsufficientRecords is returned by comparisons that need at least
	// two sequences.
	ErrInsufficientRecords = errors.New("at least two sequences are required")

	// ErrInvalidMinLength is returned by OpenReadingFrames for a minimum
	// protein length below one residue.
	ErrInvalidMinLength = errors.New("minimum ORF length must be at least 1")
)
