package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bazuu/investorconnect/internal/db"
)

// maxUploadMemory is the multipart size kept in memory before spilling
// to temporary files.
const maxUploadMemory = 32 << 20

// Request body limits. Upload limits allow formOverhead on top of the file
// data for the other fields and part headers.
const (
	maxJSONBody   = 1 << 20
	formOverhead  = 1 << 20
	maxFileSize   = 10 << 20
	maxPitchFiles = 5
	maxUploadBody = maxFileSize + formOverhead
	maxPitchBody  = maxPitchFiles*maxFileSize + formOverhead
)

type errorResponse struct {
	Error      string             `json:"error"`
	Suspension *db.SuspensionInfo `json:"suspension_info,omitempty"`
}

// paged wraps one page of results with its pagination.
type paged[T any] struct {
	Items []T `json:"items"`
	db.Pagination
}

func newPaged[T any](items []T, pg db.Pagination) paged[T] {
	if items == nil {
		items = []T{}
	}
	return paged[T]{Items: items, Pagination: pg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, db.ErrForbidden), errors.Is(err, db.ErrSuspended):
		return http.StatusForbidden
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to its status code. Internal errors are
// logged and hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var se *db.SuspendedError
	if errors.As(err, &se) {
		resp.Error = "Your account is suspended."
		resp.Suspension = &se.Info
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Error = "internal server error"
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func tooLarge(w http.ResponseWriter) {
	writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
}

// limitBody caps the request body at limit bytes. A declared length over
// the limit is rejected with 413 before anything is read.
func limitBody(w http.ResponseWriter, r *http.Request, limit int64) bool {
	if r.ContentLength > limit {
		tooLarge(w)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return true
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// decodeJSON reads the request body into dst. On failure it writes a 400 response
// (413 past maxJSONBody) and returns false so the caller can return early.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, dst *T) bool {
	if !limitBody(w, r, maxJSONBody) {
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if isTooLarge(err) {
			tooLarge(w)
			return false
		}
		badRequest(w, "invalid request body")
		return false
	}
	return true
}

// pageParam returns the 1-based page query parameter. Anything invalid is
// page 1; the store clamps pages past the end.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func pageRequest(r *http.Request, size int) db.PageRequest {
	return db.PageRequest{Number: pageParam(r), Size: size}
}

func intParam(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		badRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseMultipart parses a multipart form of at most limit bytes.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) bool {
	if !limitBody(w, r, limit) {
		return false
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		if isTooLarge(err) {
			tooLarge(w)
			return false
		}
		badRequest(w, "invalid multipart form")
		return false
	}
	return true
}

// formDecimal parses an optional decimal form field.
func formDecimal(r *http.Request, name string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, db.Errorf(db.ErrInvalid, "Enter a valid number for %s.", name)
	}
	return &d, nil
}

func formBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.FormValue(name))
	return b || r.FormValue(name) == "on"
}

// formFile opens an optional uploaded file.
func formFile(r *http.Request, name string) (multipart.File, *multipart.FileHeader, error) {
	f, fh, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	return f, fh, err
}
