package dispatch

import (
	"fmt"
	"strings"

	"genesys/internal/sequence"
	"genesys/internal/tabular"
)

// sequenceIDPhrases are answered from the parsed records without the model.
var sequenceIDPhrases = map[string]bool{
	"what are the sequence ids in the uploaded fasta file": true,
	"what are the sequence ids in the uploaded file":       true,
	"list the sequence ids":                                true,
}

var sequenceCountPhrases = map[string]bool{
	"how many sequences are in the file": true,
}

// csvPhrases map the canned CSV questions to their deterministic renderers.
var csvPhrases = map[string]func(*tabular.Summary) string{
	"what is the shape of the dataframe": func(s *tabular.Summary) string {
		return fmt.Sprintf("The dataframe has shape %s: %d rows and %d columns.", s.Shape(), s.Rows, len(s.Columns))
	},
	"what are the columns of the dataframe": func(s *tabular.Summary) string {
		return "Columns:\n" + s.ColumnList()
	},
	"tell me the descriptive statistics": func(s *tabular.Summary) string {
		return s.Describe()
	},
	"show the first 5 rows of the dataframe": func(s *tabular.Summary) string {
		return s.HeadTable()
	},
}

// normalise lower-cases, collapses whitespace and drops one trailing '?'.
func normalise(question string) string {
	q := strings.ToLower(strings.Join(strings.Fields(question), " "))
	q = strings.TrimSuffix(q, "?")
	return strings.TrimSpace(q)
}

// fastSequenceAnswer answers a recognised sequence phrase, reporting false
// when the question needs the model.
func fastSequenceAnswer(question string, records []sequence.Record) (string, bool) {
	q := normalise(question)
	switch {
	case sequenceIDPhrases[q]:
		return sequenceIDsText(records), true
	case sequenceCountPhrases[q]:
		return fmt.Sprintf("The file contains %d sequence(s): %s", len(records), strings.Join(sequence.IDs(records), ", ")), true
	}
	return "", false
}

func fastCSVAnswer(question string, summary *tabular.Summary) (string, bool) {
	render, ok := csvPhrases[normalise(question)]
	if !ok {
		return "", false
	}
	return render(summary), true
}

func sequenceIDsText(records []sequence.Record) string {
	return "The sequence IDs are: " + strings.Join(sequence.IDs(records), ", ")
}

// isSequenceIDIntent reports whether a question asks for record identifiers,
// the one intent with a deterministic answer when the model is down.
func isSequenceIDIntent(question string) bool {
	q := normalise(question)
	if strings.Contains(q, "sequence id") {
		return true
	}
	if !strings.Contains(q, "sequence") {
		return false
	}
	for _, word := range strings.FieldsFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if word == "ids" || word == "identifiers" {
			return true
		}
	}
	return false
}
