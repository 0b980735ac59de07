package bio

import (
	"genesys/internal/sequence"
	"genesys/internal/tools"
)

// perRecord applies fn to the first record, or to every record keyed by ID
// when the input asks for all records.
func perRecord(in tools.Input, fn func(sequence.Record) (any, error)) (any, error) {
	if len(in.Records) == 0 {
		return nil, sequence.ErrEmptySequenceSet
	}
	if !allRecords(in) {
		return fn(in.Records[0])
	}
	out := make(map[string]any, len(in.Records))
	for _, r := range in.Records {
		v, err := fn(r)
		if err != nil {
			return nil, err
		}
		out[r.ID] = v
	}
	return out, nil
}

func allRecords(in tools.Input) bool {
	return tools.BoolArg(in.Args, "all_records", in.AllRecords)
}
