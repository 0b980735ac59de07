// Package dispatch turns a question about an uploaded file into an answer.
//
// The order is fixed: deterministic fast paths first, then the language
// model with function calling, then a deterministic fallback for the one
// intent that has one. The model is never re-invoked automatically.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"genesys/internal/logging"
	"genesys/internal/perception"
	"genesys/internal/sequence"
	"genesys/internal/structure"
	"genesys/internal/tabular"
	"genesys/internal/tools"
	"genesys/internal/upload"
	"genesys/internal/usage"
)

// SystemPrompt is sent with every FASTA question.
const SystemPrompt = "Be a bioinformatician who answers questions about a FASTA file with the given path."

const (
	csvSystemPrompt = "Be a data analyst who answers questions about a CSV table. Answer only from the summary provided."
	pdbSystemPrompt = "Be a structural biologist who answers questions about a PDB structure. Answer only from the summary provided."
)

// Config holds dispatcher settings.
type Config struct {
	// ScratchDir is the parent of per-request scratch directories.
	ScratchDir string

	// MaxToolCalls limits how many function calls one model turn may run.
	MaxToolCalls int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxToolCalls: 4}
}

// Dispatcher answers questions. It holds no per-request state and is safe
// for concurrent use.
type Dispatcher struct {
	registry *tools.Registry
	client   perception.LLMClient
	config   Config
	log      *logging.Logger
}

// New creates a dispatcher. client may be nil, in which case only the
// deterministic paths answer.
func New(registry *tools.Registry, client perception.LLMClient, cfg Config) *Dispatcher {
	if cfg.MaxToolCalls <= 0 {
		cfg.MaxToolCalls = DefaultConfig().MaxToolCalls
	}
	return &Dispatcher{
		registry: registry,
		client:   client,
		config:   cfg,
		log:      logging.Get(logging.CategoryDispatch),
	}
}

// HasModel reports whether a language model is configured.
func (d *Dispatcher) HasModel() bool {
	return d.client != nil
}

// Registry returns the function registry.
func (d *Dispatcher) Registry() *tools.Registry {
	return d.registry
}

// resolved is an upload after decoding and classification.
type resolved struct {
	text     string
	fileType upload.FileType
}

func resolve(f upload.UploadedFile) (resolved, error) {
	text, err := upload.Decode(f.Content)
	if err != nil {
		return resolved{}, err
	}
	ft, err := upload.Classify(f.Name, f.Content)
	if err != nil {
		return resolved{}, fmt.Errorf("%s: %w", f.Name, err)
	}
	return resolved{text: text, fileType: ft}, nil
}

// Answer answers one question. Resolution failures are terminal: no
// function runs and the error is returned.
func (d *Dispatcher) Answer(ctx context.Context, req AnalysisRequest) (Answer, error) {
	timer := logging.StartTimer(logging.CategoryDispatch, "Answer")
	defer timer.Stop()

	res, err := resolve(req.File)
	if err != nil {
		d.log.Warn("Cannot resolve %q: %v", req.File.Name, err)
		return Answer{}, err
	}
	logging.Dispatch("Question on %s (%s, %d bytes): %q", req.File.Name, res.fileType, len(req.File.Content), req.Question)

	switch res.fileType {
	case upload.FileTypeFASTA:
		return d.answerFASTA(ctx, req, res.text)
	case upload.FileTypeCSV:
		return d.answerCSV(ctx, req, res.text)
	case upload.FileTypePDB:
		return d.answerPDB(ctx, req, res.text)
	default:
		return Answer{}, upload.ErrUnsupportedFileType
	}
}

func (d *Dispatcher) answerFASTA(ctx context.Context, req AnalysisRequest, text string) (Answer, error) {
	records, err := sequence.ParseString(text)
	if err != nil {
		return Answer{}, err
	}

	if ans, ok := fastSequenceAnswer(req.Question, records); ok {
		logging.DispatchDebug("Fast path hit for %q", req.Question)
		return Answer{Text: ans, Path: PathFast, FileType: upload.FileTypeFASTA, Function: "extract_sequence_ids"}, nil
	}

	answer, err := d.askModel(ctx, req, records)
	if err == nil {
		return answer, nil
	}

	if errors.Is(err, perception.ErrModelUnavailable) && isSequenceIDIntent(req.Question) {
		d.log.Warn("Model unavailable, answering %q deterministically: %v", req.Question, err)
		return Answer{
			Text:     sequenceIDsText(records),
			Path:     PathFallback,
			FileType: upload.FileTypeFASTA,
			Function: "extract_sequence_ids",
		}, nil
	}
	return Answer{}, err
}

// askModel runs the two-turn function-calling exchange against a scratch
// copy of the upload.
func (d *Dispatcher) askModel(ctx context.Context, req AnalysisRequest, records []sequence.Record) (Answer, error) {
	if d.client == nil {
		return Answer{}, fmt.Errorf("%w: no model configured", perception.ErrModelUnavailable)
	}

	scratch, err := upload.NewScratch(d.config.ScratchDir)
	if err != nil {
		return Answer{}, err
	}
	defer scratch.Close()

	path, err := scratch.Write(req.File)
	if err != nil {
		return Answer{}, err
	}

	messages := []perception.Message{
		perception.UserMessage(fmt.Sprintf("%s\n'%s'", strings.TrimSpace(req.Question), path)),
	}
	resp, err := d.client.CompleteWithTools(ctx, SystemPrompt, messages, d.toolDefinitions())
	if err != nil {
		return Answer{}, err
	}

	answer := Answer{Path: PathModel, FileType: upload.FileTypeFASTA}
	if !resp.HasToolCalls() {
		answer.Text = resp.Text
		return answer, nil
	}

	calls := resp.ToolCalls
	if len(calls) > d.config.MaxToolCalls {
		d.log.Warn("Max tool calls reached: %d of %d run", d.config.MaxToolCalls, len(calls))
		calls = calls[:d.config.MaxToolCalls]
	}

	messages = append(messages, perception.AssistantToolCalls(resp.Text, calls))
	var lastGood *tools.ToolResult
	for i, call := range calls {
		result := d.executeCall(ctx, call, path, records, req.AllRecords)
		if i == 0 {
			answer.Function = call.Name
			answer.Result = result
		}
		content := result.Text
		if result.Error != nil {
			content = "error: " + UserMessage(result.Error)
		} else {
			lastGood = result
		}
		messages = append(messages, perception.ToolResultMessage(call, content))
	}

	followCtx := usage.WithFunction(ctx, answer.Function)
	final, err := d.client.CompleteWithTools(followCtx, SystemPrompt, messages, nil)
	if err != nil {
		if lastGood != nil && errors.Is(err, perception.ErrModelUnavailable) {
			d.log.Warn("Second model turn failed, returning raw %s result: %v", lastGood.ToolName, err)
			answer.Text = lastGood.Text
			return answer, nil
		}
		return Answer{}, err
	}
	answer.Text = final.Text
	return answer, nil
}

// executeCall runs one model-requested function against this request's
// records. Failures are captured in the result, never returned.
func (d *Dispatcher) executeCall(ctx context.Context, call perception.ToolCall, path string, records []sequence.Record, allRecords bool) *tools.ToolResult {
	args := make(map[string]any, len(call.Input)+1)
	for k, v := range call.Input {
		args[k] = v
	}
	if fp, ok := args["filepath"].(string); ok && fp != path {
		d.log.Warn("Model asked for %s on %q; using this request's upload instead", call.Name, fp)
	}
	args["filepath"] = path

	result, err := d.registry.Execute(ctx, call.Name, tools.Input{
		Records:    records,
		Args:       args,
		AllRecords: allRecords,
	})
	if err != nil {
		d.log.Warn("Function %s failed: %v", call.Name, err)
		if result == nil {
			result = &tools.ToolResult{ToolName: call.Name}
		}
		result.Error = err
	}
	return result
}

func (d *Dispatcher) toolDefinitions() []perception.ToolDefinition {
	defs := d.registry.Definitions()
	out := make([]perception.ToolDefinition, len(defs))
	for i, def := range defs {
		out[i] = perception.ToolDefinition{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}
	}
	return out
}

func (d *Dispatcher) answerCSV(ctx context.Context, req AnalysisRequest, text string) (Answer, error) {
	summary, err := tabular.SummarizeString(text)
	if err != nil {
		return Answer{}, err
	}
	if ans, ok := fastCSVAnswer(req.Question, summary); ok {
		return Answer{Text: ans, Path: PathFast, FileType: upload.FileTypeCSV}, nil
	}
	return d.askWithContext(ctx, req, upload.FileTypeCSV, csvSystemPrompt, summary.String())
}

func (d *Dispatcher) answerPDB(ctx context.Context, req AnalysisRequest, text string) (Answer, error) {
	summary, err := structure.ParseString(text)
	if err != nil {
		return Answer{}, err
	}
	if strings.TrimSpace(req.Question) == "" {
		return Answer{Text: summary.String(), Path: PathFast, FileType: upload.FileTypePDB}, nil
	}
	return d.askWithContext(ctx, req, upload.FileTypePDB, pdbSystemPrompt, summary.String())
}

// askWithContext answers a question from a deterministic summary.
func (d *Dispatcher) askWithContext(ctx context.Context, req AnalysisRequest, ft upload.FileType, system, summary string) (Answer, error) {
	if d.client == nil {
		return Answer{}, fmt.Errorf("%w: no model configured", perception.ErrModelUnavailable)
	}
	prompt := fmt.Sprintf("File: %s\n\n%s\n\nQuestion: %s", req.File.Name, summary, strings.TrimSpace(req.Question))
	text, err := d.client.CompleteWithSystem(ctx, system, prompt)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: text, Path: PathModel, FileType: ft}, nil
}

// Run invokes one function by name without the model.
func (d *Dispatcher) Run(ctx context.Context, name string, file upload.UploadedFile, args map[string]any, allRecords bool) (Answer, error) {
	if !d.registry.Has(name) {
		return Answer{}, fmt.Errorf("%w: %s", tools.ErrUnknownFunction, name)
	}

	res, err := resolve(file)
	if err != nil {
		return Answer{}, err
	}
	if res.fileType != upload.FileTypeFASTA {
		return Answer{}, fmt.Errorf("%w: %s needs a FASTA file, got %s", upload.ErrUnsupportedFileType, name, res.fileType)
	}
	records, err := sequence.ParseString(res.text)
	if err != nil {
		return Answer{}, err
	}

	callArgs := make(map[string]any, len(args)+1)
	for k, v := range args {
		callArgs[k] = v
	}
	callArgs["filepath"] = file.Name

	result, err := d.registry.Execute(ctx, name, tools.Input{
		Records:    records,
		Args:       callArgs,
		AllRecords: allRecords,
	})
	if err != nil {
		return Answer{}, err
	}
	logging.Dispatch("Ran %s directly in %v", name, result.Duration)
	return Answer{
		Text:     result.Text,
		Path:     PathDirect,
		FileType: upload.FileTypeFASTA,
		Function: name,
		Result:   result,
	}, nil
}

// MarshalResult renders a function value as indented JSON.
func MarshalResult(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
