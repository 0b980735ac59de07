package dispatch

import (
	"context"
	"fmt"
	"strings"

	"genesys/internal/sequence"
	"genesys/internal/structure"
	"genesys/internal/tabular"
	"genesys/internal/upload"
)

// FileReport is the result of processing an upload without a question.
type FileReport struct {
	Name        string          `json:"name"`
	Type        upload.FileType `json:"type"`
	Size        int             `json:"size"`
	Digest      string          `json:"sha256"`
	Summary     string          `json:"summary"`
	SequenceIDs []string        `json:"sequence_ids,omitempty"`

	// ArchiveID is filled in by callers that archive the upload.
	ArchiveID int64 `json:"archive_id,omitempty"`
}

// Process classifies an upload and summarises its content.
func (d *Dispatcher) Process(ctx context.Context, f upload.UploadedFile) (FileReport, error) {
	if err := ctx.Err(); err != nil {
		return FileReport{}, err
	}
	res, err := resolve(f)
	if err != nil {
		return FileReport{}, err
	}

	report := FileReport{
		Name:   f.Name,
		Type:   res.fileType,
		Size:   f.Size(),
		Digest: f.Digest(),
	}

	switch res.fileType {
	case upload.FileTypeFASTA:
		records, err := sequence.ParseString(res.text)
		if err != nil {
			return FileReport{}, err
		}
		report.SequenceIDs = sequence.IDs(records)
		report.Summary = fastaSummary(records)
	case upload.FileTypeCSV:
		summary, err := tabular.SummarizeString(res.text)
		if err != nil {
			return FileReport{}, err
		}
		report.Summary = summary.String()
	case upload.FileTypePDB:
		summary, err := structure.ParseString(res.text)
		if err != nil {
			return FileReport{}, err
		}
		report.Summary = summary.String()
	}
	return report, nil
}

func fastaSummary(records []sequence.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d sequence(s)\n", len(records))
	for _, st := range sequence.Statistics(records) {
		if st.Type == sequence.Protein {
			fmt.Fprintf(&b, "%s: %s, %d residues\n", st.ID, st.Type, st.Length)
			continue
		}
		fmt.Fprintf(&b, "%s: %s, %d residues, GC %.2f%%\n", st.ID, st.Type, st.Length, st.GCContent)
	}
	return strings.TrimRight(b.String(), "\n")
}
