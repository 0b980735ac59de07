package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"genesys/internal/dispatch"
	"genesys/internal/store"
	"genesys/internal/tools"
	"genesys/internal/upload"
	"genesys/internal/visual"
)

// formMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const formMemory = 8 << 20

// formOverhead allows for multipart boundaries and the other form fields.
const formOverhead = 1 << 20

// UserHeader names the uploader when the form has no "user" field.
const UserHeader = "X-GeneSys-User"

// readUpload parses the multipart body and returns the "file" field. The
// caller must call cleanupForm when done.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload.UploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return upload.UploadedFile{}, fmt.Errorf("%w: request body over %d bytes", upload.ErrFileTooLarge, tooBig.Limit)
		}
		return upload.UploadedFile{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		return upload.UploadedFile{}, fmt.Errorf("%w: missing form field \"file\"", errBadRequest)
	}
	return upload.FromMultipart(files[0], s.opts.MaxUploadBytes)
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func formBool(r *http.Request, key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", errBadRequest, key)
	}
	return b, nil
}

func formInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, key)
	}
	return n, nil
}

func uploader(r *http.Request) string {
	if u := strings.TrimSpace(r.FormValue("user")); u != "" {
		return u
	}
	return strings.TrimSpace(r.Header.Get(UserHeader))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"model":     s.dispatcher.HasModel(),
		"functions": s.dispatcher.Registry().Count(),
		"archive":   s.archive != nil,
	})
}

func (s *Server) handleFunctions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dispatcher.Registry().Definitions())
}

// handleProcess classifies and summarises an upload, archiving it when the
// archive is enabled.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)
	f, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.dispatcher.Process(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if s.archive != nil {
		entry, err := s.archive.Save(r.Context(), uploader(r), f, report.Type)
		if err != nil {
			s.log.Warn("Archiving %s failed: %v", f.Name, err)
		} else {
			report.ArchiveID = entry.ID
		}
	}
	writeJSON(w, http.StatusOK, report)
}

type askResponse struct {
	dispatch.Answer
	Result        any    `json:"result,omitempty"`
	FunctionError string `json:"function_error,omitempty"`
	RequestID     string `json:"request_id"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)
	f, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	allRecords, err := formBool(r, "all_records", s.opts.AllRecords)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ans, err := s.dispatcher.Answer(r.Context(), dispatch.AnalysisRequest{
		Question:   strings.TrimSpace(r.FormValue("question")),
		File:       f,
		AllRecords: allRecords,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := askResponse{Answer: ans, RequestID: RequestIDFromContext(r.Context())}
	if ans.Result != nil {
		if ans.Result.Error != nil {
			resp.FunctionError = dispatch.UserMessage(ans.Result.Error)
		} else {
			resp.Result = ans.Result.Value
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type analyzeResponse struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Text     string `json:"text"`
	Result   any    `json:"result"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)
	name := r.PathValue("function")
	tool := s.dispatcher.Registry().Get(name)
	if tool == nil {
		s.writeError(w, r, fmt.Errorf("%w: %s", tools.ErrUnknownFunction, name))
		return
	}

	f, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	args, err := tools.ParseArgs(tool, r.MultipartForm.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	allRecords, err := formBool(r, "all_records", s.opts.AllRecords)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ans, err := s.dispatcher.Run(r.Context(), name, f, args, allRecords)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Function: name,
		File:     f.Name,
		Text:     ans.Text,
		Result:   ans.Result.Value,
	})
}

// handleRender returns a 3Dmol viewer for a PDB structure or XYZ molecule.
// page=true wraps the fragment in a standalone document.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	defer cleanupForm(r)
	f, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	text, err := upload.Decode(f.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	molecule := strings.EqualFold(filepath.Ext(f.Name), ".xyz")
	if !molecule {
		ft, err := upload.ClassifyFile(f)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if ft != upload.FileTypePDB {
			s.writeError(w, r, fmt.Errorf("%w: rendering needs a PDB or XYZ file, got %s", upload.ErrUnsupportedFileType, ft))
			return
		}
	}

	opts, err := renderOptions(r, molecule)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var fragment template.HTML
	if molecule {
		fragment, err = visual.RenderMolecule(text, opts)
	} else {
		fragment, err = visual.RenderProtein(text, opts)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := formBool(r, "page", false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body := string(fragment)
	if page {
		if body, err = visual.Page(f.Name, fragment); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func renderOptions(r *http.Request, molecule bool) (visual.Options, error) {
	opts := visual.DefaultOptions()
	if molecule {
		opts = visual.Options{}
	}
	if style := strings.TrimSpace(r.FormValue("style")); style != "" {
		st, err := visual.ParseStyle(style)
		if err != nil {
			return opts, err
		}
		opts.Style = st
	}
	if bg := strings.TrimSpace(r.FormValue("background")); bg != "" {
		opts.Background = bg
	}
	spin, err := formBool(r, "spin", opts.Spin)
	if err != nil {
		return opts, err
	}
	opts.Spin = spin
	if opts.Width, err = keepIfZero(r, "width", opts.Width); err != nil {
		return opts, err
	}
	if opts.Height, err = keepIfZero(r, "height", opts.Height); err != nil {
		return opts, err
	}
	return opts, nil
}

func keepIfZero(r *http.Request, key string, current int) (int, error) {
	n, err := formInt(r, key)
	if err != nil || n == 0 {
		return current, err
	}
	return n, nil
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "The upload archive is disabled.", RequestID: RequestIDFromContext(r.Context())})
		return
	}
	entries, err := s.archive.List(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type uploadResponse struct {
	store.Entry
	Content string `json:"content"`
}

// handleGetUpload returns one archived upload. raw=true streams the stored
// bytes as an attachment instead of JSON.
func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "The upload archive is disabled.", RequestID: RequestIDFromContext(r.Context())})
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: upload id must be an integer", errBadRequest))
		return
	}
	entry, f, err := s.archive.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if raw, _ := strconv.ParseBool(r.URL.Query().Get("raw")); raw {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Name))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(f.Content)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Entry: entry, Content: string(f.Content)})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Usage tracking is disabled.", RequestID: RequestIDFromContext(r.Context())})
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Stats())
}
