package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/arnavs06/HackNYU/internal/models"
	"github.com/arnavs06/HackNYU/internal/scan"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

var errNotImage = errors.New("must be an image")

func (s *Server) handleScanUpload(w http.ResponseWriter, r *http.Request) {
	tokenUser, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	tag, err := readFormFile(r, "tag_image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "tag_image: "+err.Error())
		return
	}
	clothing, err := readFormFile(r, "clothing_image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "clothing_image: "+err.Error())
		return
	}

	result, err := s.scans.Scan(r.Context(), scan.Request{
		UserID:        resolveUser(tokenUser, r.FormValue("user_id")),
		TagImage:      tag,
		ClothingImage: clothing,
	})
	if err != nil {
		s.writeServiceError(w, "scan", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	tokenUser, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}

	history, err := s.scans.History(r.Context(), resolveUser(tokenUser, r.PathValue("userID")), limit)
	if err != nil {
		s.writeServiceError(w, "get_history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scans": history})
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	tokenUser, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	result, err := s.ownedScan(r.Context(), r.PathValue("id"), tokenUser)
	if err != nil {
		s.writeServiceError(w, "get_scan", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scan": result})
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	tokenUser, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if _, err := s.ownedScan(r.Context(), id, tokenUser); err != nil {
		s.writeServiceError(w, "delete_scan", err)
		return
	}
	if err := s.scans.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, "delete_scan", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deletedId": id})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	tokenUser, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	stats, err := s.scans.Stats(r.Context(), resolveUser(tokenUser, r.PathValue("userID")))
	if err != nil {
		s.writeServiceError(w, "get_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePicks(w http.ResponseWriter, r *http.Request) {
	tokenUser, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	rotation := 0
	if raw := r.URL.Query().Get("rotation"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "rotation must be an integer")
			return
		}
		rotation = n
	}

	picks, err := s.scans.Picks(r.Context(), resolveUser(tokenUser, r.PathValue("userID")), rotation)
	if err != nil {
		s.writeServiceError(w, "get_picks", err)
		return
	}
	writeJSON(w, http.StatusOK, picks)
}

// authenticate returns the token's user when verification is enabled. It
// writes a 401 and reports false when the token is missing or invalid.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.verifier == nil {
		return "", true
	}
	user, err := s.verifier.UserFromRequest(r)
	if err != nil {
		s.logger.Debug("rejected token", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return user, true
}

// ownedScan loads a scan, hiding scans that belong to another token user.
func (s *Server) ownedScan(ctx context.Context, id, tokenUser string) (*models.ScanResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: scan id is required", scan.ErrInvalidRequest)
	}
	result, err := s.scans.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tokenUser != "" && result.UserID != tokenUser {
		return nil, scan.ErrNotFound
	}
	return result, nil
}

// classify maps a service error to a status code and a client-safe message.
func (s *Server) classify(op string, err error) (int, string) {
	switch {
	case errors.Is(err, scan.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, scan.ErrNotFound):
		return http.StatusNotFound, "Scan not found"
	case errors.Is(err, scan.ErrInsufficientHistory):
		return http.StatusConflict, err.Error()
	case errors.Is(err, context.Canceled):
		s.logger.Info("request cancelled", "op", op)
		return http.StatusServiceUnavailable, "Request cancelled"
	default:
		s.logger.Error("request failed", "op", op, "error", err)
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	status, message := s.classify(op, err)
	writeError(w, status, message)
}

// resolveUser prefers the verified token user over a client supplied id.
func resolveUser(tokenUser, claimed string) string {
	if tokenUser != "" {
		return tokenUser
	}
	if claimed = strings.TrimSpace(claimed); claimed != "" {
		return claimed
	}
	return scan.DefaultUserID
}

func historyLimit(n int) int {
	if n <= 0 {
		return defaultHistoryLimit
	}
	return min(n, maxHistoryLimit)
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		return nil, errNotImage
	}
	return io.ReadAll(file)
}

// cutDataURL splits "data:image/jpeg;base64,<payload>".
func cutDataURL(s string) (header, payload string, ok bool) {
	if !strings.HasPrefix(s, "data:") {
		return "", s, false
	}
	return strings.Cut(s, ",")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
