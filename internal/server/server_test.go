package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"genesys/internal/dispatch"
	"genesys/internal/perception"
	"genesys/internal/store"
	"genesys/internal/tools/bio"
	"genesys/internal/usage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

const twoSequences = ">Sequence1\nATGC\n>Sequence2\nGGCC\n"

const tinyPDB = "HEADER    TEST\nATOM      1  CA  GLY A   1       1.000   2.000   3.000  1.00  0.00           C\nEND\n"

// stubClient answers every tool turn with a fixed reply or error.
type stubClient struct {
	reply *perception.LLMToolResponse
	err   error
}

func (c *stubClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.reply.Text, nil
}

func (c *stubClient) CompleteWithTools(ctx context.Context, systemPrompt string, messages []perception.Message, defs []perception.ToolDefinition) (*perception.LLMToolResponse, error) {
	return c.reply, c.err
}

func (c *stubClient) GetModel() string { return "stub" }

func (c *stubClient) Provider() perception.Provider { return perception.ProviderOpenAI }

type fixture struct {
	server  *Server
	http    *httptest.Server
	archive *store.Archive
}

func newFixture(t *testing.T, client perception.LLMClient, withArchive bool) *fixture {
	t.Helper()
	reg, err := bio.NewRegistry(bio.DefaultOptions())
	require.NoError(t, err)
	d := dispatch.New(reg, client, dispatch.Config{ScratchDir: t.TempDir()})

	var archive *store.Archive
	if withArchive {
		archive, err = store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "uploads.db"))
		require.NoError(t, err)
	}

	s := New(d, archive, nil, Options{MaxUploadBytes: 1 << 20, RequestTimeout: 5 * time.Second})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		if archive != nil {
			archive.Close()
		}
	})
	return &fixture{server: s, http: ts, archive: archive}
}

// post sends a multipart form with a "file" field plus extra fields.
func (f *fixture) post(t *testing.T, path, filename, content string, fields map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, f.http.URL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := f.http.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := f.http.Client().Get(f.http.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthAndFunctions(t *testing.T) {
	f := newFixture(t, nil, false)

	resp := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	health := decode(t, resp)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["model"])
	assert.EqualValues(t, len(bio.DescriptorNames), health["functions"])

	resp = f.get(t, "/api/functions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var defs []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&defs))
	assert.Len(t, defs, len(bio.DescriptorNames))
	assert.Contains(t, defs[0], "input_schema")
}

func TestRequestIDEchoed(t *testing.T) {
	f := newFixture(t, nil, false)
	req, err := http.NewRequest(http.MethodGet, f.http.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := f.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestAsk_FastPath(t *testing.T) {
	f := newFixture(t, nil, false)

	resp := f.post(t, "/api/ask", "seqs.fasta", twoSequences, map[string]string{
		"question": "What are the sequence IDs in the uploaded FASTA file?",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "The sequence IDs are: Sequence1, Sequence2", body["answer"])
	assert.Equal(t, "fast", body["path"])
	assert.Equal(t, "FASTA", body["file_type"])
}

func TestAsk_ModelFunctionCall(t *testing.T) {
	client := &stubClient{reply: &perception.LLMToolResponse{
		ToolCalls: []perception.ToolCall{{ID: "c1", Name: "gc_content", Input: map[string]any{"filepath": "x"}}},
	}}
	f := newFixture(t, client, false)

	// The stub keeps asking for the function; the dispatcher executes once
	// and then takes the reply's (empty) text as the answer.
	resp := f.post(t, "/api/ask", "seqs.fasta", twoSequences, map[string]string{"question": "GC?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "model", body["path"])
	assert.Equal(t, "gc_content", body["function"])
	assert.EqualValues(t, 50, body["result"])
}

func TestAsk_Errors(t *testing.T) {
	unavailable := &stubClient{err: fmt.Errorf("%w: 503", perception.ErrModelUnavailable)}

	tests := []struct {
		name     string
		client   perception.LLMClient
		filename string
		content  string
		question string
		status   int
		contains string
	}{
		{"unsupported type", nil, "notes.docx", "hello", "hi", http.StatusUnsupportedMediaType, "Unsupported file type"},
		{"not utf8", nil, "seqs.fasta", "\xff\xfe", "hi", http.StatusBadRequest, "UTF-8"},
		{"empty fasta", nil, "seqs.fasta", "", "hi", http.StatusBadRequest, "no sequences"},
		{"model down", unavailable, "seqs.fasta", twoSequences, "What is the GC content?", http.StatusServiceUnavailable, "unavailable"},
		{"no file", nil, "", "", "hi", http.StatusBadRequest, "file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.client, false)
			resp := f.post(t, "/api/ask", tt.filename, tt.content, map[string]string{"question": tt.question})
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode(t, resp)
			assert.Contains(t, body["error"], tt.contains)
			assert.NotEmpty(t, body["request_id"])
		})
	}
}

func TestAsk_FallbackWhenModelDown(t *testing.T) {
	client := &stubClient{err: fmt.Errorf("%w: 429", perception.ErrModelUnavailable)}
	f := newFixture(t, client, false)

	resp := f.post(t, "/api/ask", "seqs.fasta", twoSequences, map[string]string{"question": "which sequence ids are there"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "fallback", body["path"])
	assert.Contains(t, body["answer"], "Sequence2")
}

func TestAsk_TooLarge(t *testing.T) {
	f := newFixture(t, nil, false)
	big := ">A\n" + strings.Repeat("A", 1<<20) + "\n"
	resp := f.post(t, "/api/ask", "big.fasta", big, map[string]string{"question": "hi"})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t, nil, false)

	resp := f.post(t, "/api/analyze/find_motifs", "seqs.fasta", twoSequences, map[string]string{
		"motif":       "GC",
		"all_records": "true",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "find_motifs", body["function"])
	assert.Equal(t, map[string]any{"Sequence1": []any{2.0}, "Sequence2": []any{1.0}}, body["result"])

	resp = f.post(t, "/api/analyze/restriction_sites", "seqs.fasta", ">E\nGAATTCGAATTC\n", map[string]string{
		"enzymes": "EcoRI",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, "/api/analyze/blast", "seqs.fasta", twoSequences, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.post(t, "/api/analyze/find_motifs", "seqs.fasta", twoSequences, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["error"], "required argument")

	resp = f.post(t, "/api/analyze/translation", "seqs.fasta", twoSequences, map[string]string{"to_stop": "maybe"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRender(t *testing.T) {
	f := newFixture(t, nil, false)

	resp := f.post(t, "/api/render", "1abc.pdb", tinyPDB, map[string]string{"style": "stick", "background": "0x000000", "spin": "false"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	html, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(html), `"stick"`)
	assert.Contains(t, string(html), "viewer.spin(false)")
	assert.NotContains(t, string(html), "<!DOCTYPE html>")

	resp = f.post(t, "/api/render", "1abc.pdb", tinyPDB, map[string]string{"page": "true"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	html, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(html), "<!DOCTYPE html>"))

	resp = f.post(t, "/api/render", "water.xyz", "3\nwater\nO 0 0 0\nH 0 0.76 0.59\nH 0 -0.76 0.59\n", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, "/api/render", "1abc.pdb", tinyPDB, map[string]string{"style": "ribbon"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.post(t, "/api/render", "seqs.fasta", twoSequences, nil)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestProcessAndArchive(t *testing.T) {
	f := newFixture(t, nil, true)

	resp := f.post(t, "/api/files", "seqs.fasta", twoSequences, map[string]string{"user": "charlie"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode(t, resp)
	assert.Equal(t, "FASTA", report["type"])
	assert.Equal(t, []any{"Sequence1", "Sequence2"}, report["sequence_ids"])
	id, ok := report["archive_id"].(float64)
	require.True(t, ok, "archive id should be set")

	resp = f.get(t, "/api/uploads?user=charlie")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "seqs.fasta", entries[0]["name"])

	resp = f.get(t, fmt.Sprintf("/api/uploads/%d", int64(id)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, twoSequences, decode(t, resp)["content"])

	resp = f.get(t, fmt.Sprintf("/api/uploads/%d?raw=true", int64(id)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, twoSequences, string(raw))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "seqs.fasta")

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/uploads/999").StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/uploads/abc").StatusCode)
}

func TestArchiveAndUsageDisabled(t *testing.T) {
	f := newFixture(t, nil, false)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/uploads").StatusCode)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/usage").StatusCode)

	resp := f.post(t, "/api/files", "seqs.fasta", twoSequences, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, has := decode(t, resp)["archive_id"]
	assert.False(t, has)
}

func TestUsageEndpoint(t *testing.T) {
	tracker, err := usage.NewTracker(filepath.Join(t.TempDir(), "usage.json"))
	require.NoError(t, err)
	defer tracker.Close()
	tracker.Track(context.Background(), "gpt-4o", "openai", 10, 5, "tool_call")

	reg, err := bio.NewRegistry(bio.DefaultOptions())
	require.NoError(t, err)
	s := New(dispatch.New(reg, nil, dispatch.Config{}), nil, tracker, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/usage", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gpt-4o")
}

func TestServe_GracefulShutdown(t *testing.T) {
	reg, err := bio.NewRegistry(bio.DefaultOptions())
	require.NoError(t, err)
	s := New(dispatch.New(reg, nil, dispatch.Config{}), nil, nil, Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	assert.Equal(t, http.StatusNotFound, statusFor(store.ErrNotFound))
	assert.Equal(t, http.StatusBadGateway, statusFor(fmt.Errorf("%w: arguments for gc_content", perception.ErrMalformedToolCall)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
