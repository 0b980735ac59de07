package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"genesys/internal/config"
	"genesys/internal/dispatch"
	"genesys/internal/perception"
	"genesys/internal/tools"
	"genesys/internal/upload"
)

const testFASTA = ">Sequence1\nATGC\n>Sequence2\nGGCC\n"

const testPDB = `HEADER    PLANT PROTEIN                           30-APR-81   1CRN
ATOM      1  N   THR A   1      17.047  14.099   3.625  1.00 13.79           N
ATOM      2  CA  THR A   1      16.967  12.784   4.338  1.00 10.80           C
END
`

// setupCLI resets the globals a command reads and returns a temp dir.
func setupCLI(t *testing.T) string {
	t.Helper()
	logger = zap.NewNop()
	dir := t.TempDir()

	cfg = config.DefaultConfig()
	cfg.Usage.Enabled = false
	cfg.Store.DatabasePath = filepath.Join(dir, "uploads.db")
	cfg.Server.ScratchDir = dir

	plain = true
	jsonOutput = false
	timeout = 10 * time.Second
	askAllRecords = false
	analyzeArgs = nil
	analyzeAllRecords = false
	processArchive = false
	processUser = ""
	renderOut = ""
	renderStyle = ""
	renderBackground = ""
	renderSpin = true
	renderWidth = 0
	renderHeight = 0
	renderFragment = false
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestJoinArgs(t *testing.T) {
	got := joinArgs([]string{"list", "the", "sequence", "ids"})
	if got != "list the sequence ids" {
		t.Fatalf("expected 'list the sequence ids', got '%s'", got)
	}
}

func TestParseArgFlags(t *testing.T) {
	values, err := parseArgFlags([]string{"motif=ATG", "enzymes=EcoRI", "enzymes=BamHI", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"motif":   {"ATG"},
		"enzymes": {"EcoRI", "BamHI"},
		"empty":   {""},
	}, values)

	_, err = parseArgFlags([]string{"motif"})
	assert.ErrorIs(t, err, tools.ErrInvalidArgType)
	_, err = parseArgFlags([]string{"=ATG"})
	assert.ErrorIs(t, err, tools.ErrInvalidArgType)
}

func TestRunAsk_FastPath(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "seqs.fasta", testFASTA)

	output := captureOutput(t, func() {
		err := runAsk(&cobra.Command{}, []string{path, "List", "the", "sequence", "IDs?"})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "The sequence IDs are: Sequence1, Sequence2")
	assert.Contains(t, output, "fast")
}

func TestRunAsk_JSON(t *testing.T) {
	dir := setupCLI(t)
	jsonOutput = true
	path := writeFile(t, dir, "seqs.fasta", testFASTA)

	output := captureOutput(t, func() {
		require.NoError(t, runAsk(&cobra.Command{}, []string{path, "how many sequences are in the file?"}))
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "fast", got["path"])
	assert.Equal(t, "FASTA", got["file_type"])
	assert.Contains(t, got["answer"], "2 sequence(s)")
}

func TestRunAsk_NoModel(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "seqs.fasta", testFASTA)

	var err error
	captureOutput(t, func() {
		err = runAsk(&cobra.Command{}, []string{path, "translate", "the", "first", "sequence"})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, perception.ErrModelUnavailable)
	assert.True(t, strings.HasPrefix(err.Error(), dispatch.UserMessage(perception.ErrModelUnavailable)))

	// The sequence-ID intent still has a deterministic answer.
	output := captureOutput(t, func() {
		require.NoError(t, runAsk(&cobra.Command{}, []string{path, "give me the sequence ids please"}))
	})
	assert.Contains(t, output, "Sequence1, Sequence2")
	assert.Contains(t, output, "fallback")
}

func TestRunAsk_UnsupportedFile(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "notes.docx", "hello")

	var err error
	captureOutput(t, func() {
		err = runAsk(&cobra.Command{}, []string{path, "what is this"})
	})
	assert.ErrorIs(t, err, upload.ErrUnsupportedFileType)
}

func TestRunProcess_Archive(t *testing.T) {
	dir := setupCLI(t)
	processArchive = true
	processUser = "charlie"
	path := writeFile(t, dir, "seqs.fasta", testFASTA)

	output := captureOutput(t, func() {
		require.NoError(t, runProcess(&cobra.Command{}, []string{path}))
	})

	assert.Contains(t, output, "seqs.fasta")
	assert.Contains(t, output, "FASTA")
	assert.Contains(t, output, "2 sequence(s)")
	assert.Contains(t, output, "archive id: 1")
	assert.FileExists(t, cfg.Store.DatabasePath)
}

func TestRunAnalyze(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "seqs.fasta", testFASTA)

	output := captureOutput(t, func() {
		require.NoError(t, runAnalyze(&cobra.Command{}, []string{"gc_content", path}))
	})
	assert.Contains(t, output, "50")
	assert.Contains(t, output, "gc_content")

	jsonOutput = true
	analyzeArgs = []string{"motif=GC"}
	analyzeAllRecords = true
	output = captureOutput(t, func() {
		require.NoError(t, runAnalyze(&cobra.Command{}, []string{"find_motifs", path}))
	})
	var got struct {
		Function string           `json:"function"`
		Result   map[string][]int `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "find_motifs", got.Function)
	assert.Equal(t, map[string][]int{"Sequence1": {2}, "Sequence2": {1}}, got.Result)
}

func TestRunAnalyze_Errors(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "seqs.fasta", testFASTA)

	var err error
	captureOutput(t, func() {
		err = runAnalyze(&cobra.Command{}, []string{"blast_search", path})
	})
	assert.ErrorIs(t, err, tools.ErrUnknownFunction)

	analyzeArgs = []string{"motif"}
	captureOutput(t, func() {
		err = runAnalyze(&cobra.Command{}, []string{"find_motifs", path})
	})
	assert.ErrorIs(t, err, tools.ErrInvalidArgType)

	analyzeArgs = nil
	csv := writeFile(t, dir, "t.csv", "x,y\n1,2\n")
	captureOutput(t, func() {
		err = runAnalyze(&cobra.Command{}, []string{"gc_content", csv})
	})
	assert.ErrorIs(t, err, upload.ErrUnsupportedFileType)
}

func TestRunRender(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "1crn.pdb", testPDB)
	renderOut = filepath.Join(dir, "1crn.html")
	renderStyle = "sphere"
	renderBackground = "black"

	captureOutput(t, func() {
		require.NoError(t, runRender(&cobra.Command{}, []string{path}))
	})

	page, err := os.ReadFile(renderOut)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(page), "<!DOCTYPE html>"))
	assert.Contains(t, string(page), "3Dmol")
	assert.Contains(t, string(page), "sphere")
	assert.Contains(t, string(page), "<title>1crn.pdb</title>")
}

func TestRunRender_Fragment(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "water.xyz", "3\nwater\nO 0.0 0.0 0.0\nH 0.76 0.59 0.0\nH -0.76 0.59 0.0\n")
	renderFragment = true

	output := captureOutput(t, func() {
		require.NoError(t, runRender(&cobra.Command{}, []string{path}))
	})
	assert.NotContains(t, output, "<!DOCTYPE html>")
	assert.Contains(t, output, "stick")
}

func TestRunRender_RejectsFASTA(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "seqs.fasta", testFASTA)

	var err error
	captureOutput(t, func() {
		err = runRender(&cobra.Command{}, []string{path})
	})
	assert.ErrorIs(t, err, upload.ErrUnsupportedFileType)
}

func TestRunFunctions(t *testing.T) {
	setupCLI(t)

	output := captureOutput(t, func() {
		require.NoError(t, runFunctions(&cobra.Command{}, nil))
	})
	for _, name := range []string{"gc_content", "find_motifs", "count_occurences", "reverseComplementary"} {
		assert.Contains(t, output, name)
	}
	assert.Contains(t, output, "motif (string)*")
	assert.NotContains(t, output, "filepath (")
}

func TestRunUsage(t *testing.T) {
	dir := setupCLI(t)

	output := captureOutput(t, func() {
		require.NoError(t, runUsage(&cobra.Command{}, nil))
	})
	assert.Contains(t, output, "disabled")

	cfg.Usage.Enabled = true
	cfg.Usage.Path = writeFile(t, dir, "usage.json", `{"version":"1.0","aggregate":{"total":{"input":10,"output":5,"total":15},"calls":1,"by_function":{"gc_content":{"input":10,"output":5,"total":15}}}}`)
	output = captureOutput(t, func() {
		require.NoError(t, runUsage(&cobra.Command{}, nil))
	})
	assert.Contains(t, output, "calls: 1")
	assert.Contains(t, output, "10 in / 5 out / 15 total")
	assert.Contains(t, output, "gc_content")
}

func TestReadUpload_TooLarge(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "seqs.fasta", testFASTA)

	_, err := readUpload(path, 4)
	assert.ErrorIs(t, err, upload.ErrFileTooLarge)

	f, err := readUpload(path, int64(len(testFASTA)))
	require.NoError(t, err)
	assert.Equal(t, "seqs.fasta", f.Name)
}

func TestServerOptions(t *testing.T) {
	setupCLI(t)
	cfg.LLM.Timeout = "45s"
	cfg.Server.WriteTimeout = "30s"
	cfg.Analysis.AllRecords = true

	serveAddr = ""
	opts := serverOptions(cfg)
	assert.Equal(t, "127.0.0.1:8080", opts.Addr)
	assert.Equal(t, 90*time.Second, opts.RequestTimeout)
	assert.Equal(t, 90*time.Second, opts.WriteTimeout)
	assert.True(t, opts.AllRecords)

	serveAddr = ":9999"
	defer func() { serveAddr = "" }()
	assert.Equal(t, ":9999", serverOptions(cfg).Addr)
}

func TestChatModel(t *testing.T) {
	setupCLI(t)
	a, err := newApp(t.Context(), cfg, false)
	require.NoError(t, err)
	defer a.close()

	f := upload.UploadedFile{Name: "seqs.fasta", Content: []byte(testFASTA)}
	var m tea.Model = newChatModel(a.dispatcher, f, time.Second, false)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("list the sequence ids")})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cm := m.(chatModel)
	assert.True(t, cm.busy)
	assert.Empty(t, cm.input.Value())

	// A second Enter while busy is ignored.
	_, cmd = cm.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	msg := cm.ask("list the sequence ids")()
	m, _ = cm.Update(msg)
	cm = m.(chatModel)
	assert.False(t, cm.busy)
	require.Len(t, cm.history, 1)
	assert.Contains(t, cm.View(), "The sequence IDs are: Sequence1, Sequence2")

	m, _ = cm.Update(cm.ask("what is the molecular weight")())
	assert.Contains(t, m.View(), dispatch.UserMessage(perception.ErrModelUnavailable))

	m, _ = m.Update(cm.summarise()())
	assert.Contains(t, m.View(), "2 sequence(s)")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var out, errOut bytes.Buffer
		errDone := make(chan struct{})
		go func() {
			_, _ = io.Copy(&errOut, rErr)
			close(errDone)
		}()
		_, _ = io.Copy(&out, rOut)
		<-errDone
		done <- out.String() + errOut.String()
	}()

	defer func() {
		_ = wOut.Close()
		_ = wErr.Close()
		os.Stdout = origOut
		os.Stderr = origErr
	}()
	fn()
	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
