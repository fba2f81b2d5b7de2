package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/razeghi71/tabview/config"
	"github.com/razeghi71/tabview/engine"
	"github.com/razeghi71/tabview/errhandling"
	"github.com/razeghi71/tabview/filter"
	"github.com/razeghi71/tabview/loader"
	"github.com/razeghi71/tabview/logger"
	"github.com/razeghi71/tabview/view"
)

const maxBodyBytes = 1 << 20

// Handler serves the view operations over HTTP/JSON.
type Handler struct {
	state    *view.State
	paging   config.View
	loadOpts loader.Options
}

// NewHandler creates a handler over state.
func NewHandler(state *view.State, paging config.View, loadOpts loader.Options) *Handler {
	return &Handler{state: state, paging: paging, loadOpts: loadOpts}
}

// Routes returns the request multiplexer.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", h.HandlePing)
	mux.HandleFunc("POST /load", h.HandleLoad)
	mux.HandleFunc("GET /columns", h.HandleColumns)
	mux.HandleFunc("GET /rows/total", h.HandleTotalRows)
	mux.HandleFunc("GET /rows", h.HandleRows)
	mux.HandleFunc("POST /sort", h.HandleSort)
	mux.HandleFunc("POST /filter", h.HandleQuickFilter)
	mux.HandleFunc("POST /filter/advanced", h.HandleAdvancedFilter)
	mux.HandleFunc("POST /filter/text", h.HandleTextFilter)
	mux.HandleFunc("POST /group", h.HandleGroup)
	mux.HandleFunc("POST /group/reset", h.HandleResetGrouping)
	mux.HandleFunc("GET /state", h.HandleState)
	return mux
}

type rowsResponse struct {
	Rows int `json:"rows"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    errhandling.Kind `json:"kind"`
	Message string           `json:"message"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind errhandling.Kind) int {
	switch kind {
	case errhandling.KindNoDataLoaded:
		return http.StatusConflict
	case errhandling.KindColumnNotFound:
		return http.StatusNotFound
	case errhandling.KindCastError, errhandling.KindUnsupportedOperator, errhandling.KindInvalidRequest:
		return http.StatusBadRequest
	case errhandling.KindLoadError:
		return http.StatusUnprocessableEntity
	case errhandling.KindLockError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errhandling.KindOf(err)
	status := statusFor(kind)
	logger.With("method", r.Method, "path", r.URL.Path).Warn("request failed", "kind", string(kind), "status", status, "error", err)
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: err.Error()}})
}

func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errhandling.New(errhandling.KindInvalidRequest, "decode", "failed to read request body: %v", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errhandling.New(errhandling.KindInvalidRequest, "decode", "empty request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errhandling.New(errhandling.KindInvalidRequest, "decode", "invalid JSON body: %v", err)
	}
	return nil
}

// HandlePing responds with "Ok." for health checks.
func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Ok.")
}

// HandleLoad loads a file from the server's filesystem.
func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeError(w, r, errhandling.New(errhandling.KindInvalidRequest, "load", "path is required"))
		return
	}
	n, err := h.state.LoadFile(req.Path, h.loadOpts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: n})
}

// HandleColumns lists the columns of the current view.
func (h *Handler) HandleColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.state.Columns()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

// HandleTotalRows reports the row count of the current view.
func (h *Handler) HandleTotalRows(w http.ResponseWriter, r *http.Request) {
	n, err := h.state.TotalRows()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: n})
}

// HandleRows returns a page of the current view. limit defaults to the
// configured page size and is capped at the maximum.
func (h *Handler) HandleRows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intParam(q.Get("limit"), h.paging.DefaultPageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit > h.paging.MaxPageSize {
		limit = h.paging.MaxPageSize
	}

	data, err := h.state.Rows(offset, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errhandling.New(errhandling.KindInvalidRequest, "rows", "expected a non-negative integer, got %q", s)
	}
	return n, nil
}

// HandleSort sorts the current view.
func (h *Handler) HandleSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Column     string `json:"column"`
		Descending bool   `json:"descending"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.state.Sort(req.Column, req.Descending)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: n})
}

// HandleQuickFilter applies the search-box filter. An absent or null column
// searches every column.
func (h *Handler) HandleQuickFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Column *string `json:"column"`
		Query  string  `json:"query"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.state.QuickFilter(req.Column, req.Query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: n})
}

// HandleAdvancedFilter applies a predicate tree.
func (h *Handler) HandleAdvancedFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FilterTree json.RawMessage `json:"filterTree"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.FilterTree) == 0 {
		writeError(w, r, errhandling.New(errhandling.KindInvalidRequest, "filter", "filterTree is required"))
		return
	}
	node, err := filter.Parse(req.FilterTree)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.state.AdvancedFilter(node)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: n})
}

// HandleTextFilter applies a textual filter expression.
func (h *Handler) HandleTextFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expr string `json:"expr"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.state.TextFilter(req.Expr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: n})
}

// HandleGroup groups the original table.
func (h *Handler) HandleGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Column string `json:"column"`
		Agg    string `json:"agg"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := engine.ParseAggKind(req.Agg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.state.GroupBy(req.Column, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Summary string `json:"summary"`
	}{summary})
}

// HandleResetGrouping restores the original table.
func (h *Handler) HandleResetGrouping(w http.ResponseWriter, r *http.Request) {
	n, err := h.state.ResetGrouping()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: n})
}

// HandleState reports the view state.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	info, err := h.state.Info()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
