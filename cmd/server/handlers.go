package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prasadg/examsift"
)

type handler struct {
	engine examsift.Engine
}

func newHandler(e examsift.Engine) *handler {
	return &handler{engine: e}
}

// POST /extract
// Accepts multipart PDF upload or JSON with file path. Runs the full
// extraction pipeline and returns the merged questions without persisting.
func (h *handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	// Try multipart upload first
	if err := r.ParseMultipartForm(100 << 20); err == nil { // 100MB max
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()

			// The client filename is echoed back only; the file itself
			// gets a unique temp name so concurrent uploads never collide.
			safeName := filepath.Base(header.Filename)

			dst, err := os.CreateTemp(os.TempDir(), "input_*.pdf")
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to process file")
				slog.Error("creating temp file", "error", err)
				return
			}
			tmpPath := dst.Name()
			if _, err := io.Copy(dst, file); err != nil {
				dst.Close()
				writeError(w, http.StatusInternalServerError, "failed to save file")
				slog.Error("saving uploaded file", "error", err)
				return
			}
			dst.Close()
			defer os.Remove(tmpPath)

			result, err := h.engine.Extract(ctx, tmpPath)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "extraction failed")
				slog.Error("extract error", "error", err)
				return
			}

			writeJSON(w, http.StatusOK, map[string]interface{}{
				"filename": safeName,
				"result":   result,
			})
			return
		}
	}

	// Try JSON body with path
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart file or JSON with 'path'")
		return
	}

	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	// Validate that path is a real file (prevents directory traversal probing).
	absPath, err := filepath.Abs(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusBadRequest, "path must be an existing file")
		return
	}

	result, err := h.engine.Extract(ctx, absPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "extraction failed")
		slog.Error("extract error", "path", absPath, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filename": filepath.Base(absPath),
		"result":   result,
	})
}

// POST /save
// Persists a previously returned extraction result under a new upload.
func (h *handler) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Filename string          `json:"filename"`
		Result   examsift.Result `json:"result"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	uploadID, saved, err := h.engine.Save(ctx, req.Filename, &req.Result)
	if err != nil {
		if errors.Is(err, examsift.ErrNoQuestions) {
			writeError(w, http.StatusBadRequest, "result contains no questions")
			return
		}
		writeError(w, http.StatusInternalServerError, "save failed")
		slog.Error("save error", "filename", req.Filename, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upload_id": uploadID,
		"saved":     saved,
	})
}

// GET /questions?upload_id=N
func (h *handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	uploadID, ok := uploadIDParam(w, r)
	if !ok {
		return
	}

	questions, err := h.engine.ListQuestions(r.Context(), uploadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list questions")
		slog.Error("list questions error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": questions,
		"count":     len(questions),
	})
}

// GET /questions/{qno}?upload_id=N
func (h *handler) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	qnoStr := r.PathValue("qno")
	qno, err := strconv.Atoi(qnoStr)
	if err != nil || qno <= 0 {
		writeError(w, http.StatusBadRequest, "invalid question number")
		return
	}

	uploadID, ok := uploadIDParam(w, r)
	if !ok {
		return
	}

	q, err := h.engine.GetQuestion(r.Context(), qno, uploadID)
	if err != nil {
		if errors.Is(err, examsift.ErrQuestionNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get question")
		slog.Error("get question error", "qno", qno, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// DELETE /questions?upload_id=N
// Without upload_id, deletes all stored questions and uploads.
func (h *handler) handleDeleteQuestions(w http.ResponseWriter, r *http.Request) {
	uploadID, ok := uploadIDParam(w, r)
	if !ok {
		return
	}

	deleted, err := h.engine.DeleteQuestions(r.Context(), uploadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		slog.Error("delete questions error", "upload_id", uploadID, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "deleted",
		"deleted": deleted,
	})
}

// GET /uploads
func (h *handler) handleListUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.engine.ListUploads(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list uploads")
		slog.Error("list uploads error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uploads": uploads,
	})
}

// GET /questions/search?q=...&limit=N
func (h *handler) handleSearchQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 0 and 100")
			return
		}
		limit = n
	}

	results, err := h.engine.SearchQuestions(r.Context(), query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		slog.Error("search error", "query", query, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// GET /questions/export?upload_id=N
// Streams stored questions as an XLSX workbook.
func (h *handler) handleExportQuestions(w http.ResponseWriter, r *http.Request) {
	uploadID, ok := uploadIDParam(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="questions.xlsx"`)

	if err := h.engine.ExportXLSX(r.Context(), w, uploadID); err != nil {
		// Headers are already out; the truncated body signals the failure.
		slog.Error("export error", "upload_id", uploadID, "error", err)
	}
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// uploadIDParam parses the optional upload_id query parameter. Zero means
// all uploads. On a malformed value it writes a 400 and returns ok=false.
func uploadIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	v := r.URL.Query().Get("upload_id")
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "invalid upload_id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf("%s", msg)})
}
