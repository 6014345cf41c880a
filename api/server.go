// Package api - Thin HTTP layer over the calculator and the workspace
// The API is ONLY responsible for: input decoding, orchestration, output serialization.
// The API NEVER performs pricing logic.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"structcalc/core/catalog"
	"structcalc/core/output"
	"structcalc/core/pricing"
	"structcalc/core/types"
	"structcalc/core/workspace"
	apperrors "structcalc/internal/errors"
	"structcalc/internal/validate"
)

// maxBodyBytes caps request bodies; workspace files are small
const maxBodyBytes = 8 << 20

// Server is the API server
type Server struct {
	mux        *http.ServeMux
	version    string
	workspace  *workspace.Workspace
	catalog    *catalog.Catalog
	formatters output.FormatterRegistry
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithCatalog replaces the built-in price table
func WithCatalog(cat *catalog.Catalog) Option {
	return func(s *Server) { s.catalog = cat }
}

// WithFormatters replaces the default formatter registry
func WithFormatters(r output.FormatterRegistry) Option {
	return func(s *Server) { s.formatters = r }
}

// WithLogger sets the request logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the time source for offers and exports
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a new API server over an open workspace
func NewServer(version string, ws *workspace.Workspace, opts ...Option) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		version:    version,
		workspace:  ws,
		catalog:    catalog.Default(),
		formatters: output.DefaultRegistry(),
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Calculator
	s.mux.HandleFunc("POST /calculate", s.handleCalculate)
	s.mux.HandleFunc("GET /catalog", s.handleCatalog)

	// Workspace
	s.mux.HandleFunc("GET /projects", s.handleListProjects)
	s.mux.HandleFunc("POST /projects", s.handleSaveProject)
	s.mux.HandleFunc("PUT /projects/order", s.handleReorder)
	s.mux.HandleFunc("DELETE /projects/{id}", s.handleDeleteProject)
	s.mux.HandleFunc("POST /projects/{id}/archive", s.handleArchive(true))
	s.mux.HandleFunc("POST /projects/{id}/unarchive", s.handleArchive(false))
	s.mux.HandleFunc("GET /projects/{id}/offer", s.handleOffer)
	s.mux.HandleFunc("GET /workspace/export", s.handleExport)
	s.mux.HandleFunc("POST /workspace/import", s.handleImport)

	// Supporting endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// handleCalculate handles POST /calculate. The body is a project input;
// ?format= picks the representation, json by default.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	in := types.DefaultInput()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&in); err != nil {
		s.fail(w, r, apperrors.Parsing("invalid JSON body", err))
		return
	}
	if err := validate.Struct(in); err != nil {
		s.fail(w, r, err)
		return
	}

	result := pricing.Calculate(in, s.catalog)
	s.writeOffer(w, r, output.NewOffer(in, result, s.catalog, s.now()), output.FormatJSON, false)
}

// handleCatalog handles GET /catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, CatalogResponse{Groups: s.catalog.Groups()}, http.StatusOK)
}

// handleListProjects handles GET /projects?archived=true|false|all
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	var projects []types.SavedProject
	switch r.URL.Query().Get("archived") {
	case "", "all":
		projects = s.workspace.List()
	case "true":
		projects = s.workspace.Archived()
	case "false":
		projects = s.workspace.Active()
	default:
		s.fail(w, r, apperrors.Input("archived must be true, false or all"))
		return
	}
	if projects == nil {
		projects = []types.SavedProject{}
	}

	s.writeJSON(w, ProjectListResponse{
		Name:     s.workspace.Name(),
		Projects: projects,
		Count:    len(projects),
	}, http.StatusOK)
}

// handleSaveProject handles POST /projects
func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	req := SaveProjectRequest{Input: types.DefaultInput()}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.fail(w, r, apperrors.Parsing("invalid JSON body", err))
		return
	}

	project, err := s.workspace.Save(r.Context(), req.Input, req.ID, req.AsNew)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if req.ID == "" || req.AsNew {
		status = http.StatusCreated
	}
	s.writeJSON(w, project, status)
}

// handleReorder handles PUT /projects/order
func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.fail(w, r, apperrors.Parsing("invalid JSON body", err))
		return
	}
	if err := validate.Struct(req); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.workspace.Reorder(r.Context(), req.IDs); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteProject handles DELETE /projects/{id}
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleArchive handles POST /projects/{id}/archive and /unarchive
func (s *Server) handleArchive(archived bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := s.workspace.SetArchived(r.Context(), id, archived); err != nil {
			s.fail(w, r, err)
			return
		}
		project, err := s.workspace.Get(id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.writeJSON(w, project, http.StatusOK)
	}
}

// handleOffer handles GET /projects/{id}/offer?format=html|txt|json and
// serves the offer as a download, html by default
func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	project, err := s.workspace.Get(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result := pricing.Calculate(project.Data, s.catalog)
	s.writeOffer(w, r, output.NewOffer(project.Data, result, s.catalog, s.now()), output.FormatHTML, true)
}

// handleExport handles GET /workspace/export. ?format=xlsx returns a
// priced spreadsheet summary instead of the bundle.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	now := s.now()

	var buf bytes.Buffer
	var filename string
	format := output.Format(r.URL.Query().Get("format"))
	switch format {
	case "", output.FormatJSON:
		format = output.FormatJSON
		data, err := workspace.EncodeBundle(s.workspace.Export(now))
		if err != nil {
			s.fail(w, r, apperrors.Wrap(apperrors.TypeInternal, "failed to encode workspace", err))
			return
		}
		buf.Write(data)
		filename = output.WorkspaceFileName(s.workspace.Name(), now)
	case output.FormatXLSX:
		if err := output.WriteProjectsWorkbook(&buf, s.workspace.List(), s.catalog); err != nil {
			s.fail(w, r, apperrors.Wrap(apperrors.TypeInternal, "failed to build workbook", err))
			return
		}
		filename = output.ProjectsFileName(s.workspace.Name(), now)
	default:
		s.fail(w, r, apperrors.Input(fmt.Sprintf("unsupported export format %q", format)).
			WithContext("supported", "json, xlsx"))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", attachment(filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleImport handles POST /workspace/import. The body is a workspace
// file; ?mode=merge prepends its projects instead of replacing the list.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, apperrors.Parsing("failed to read body", err))
		return
	}

	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "replace":
		decoded, err := s.workspace.Import(r.Context(), data)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.writeJSON(w, ImportResponse{
			Mode:    "replace",
			Name:    decoded.Name,
			Shape:   decoded.Shape.String(),
			Count:   len(decoded.Projects),
			Skipped: decoded.Skipped,
		}, http.StatusOK)

	case "merge":
		res, err := s.workspace.Merge(r.Context(), data)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if len(res.Added) == 0 && len(res.Failed) > 0 {
			s.fail(w, r, res.Failed[0])
			return
		}
		s.writeJSON(w, ImportResponse{
			Mode:  "merge",
			Count: len(res.Added),
		}, http.StatusOK)

	default:
		s.fail(w, r, apperrors.Newf(apperrors.TypeInput, "unknown import mode %q", mode))
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":   "healthy",
		"version":  s.version,
		"projects": len(s.workspace.List()),
		"time":     s.now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "structcalc",
		"api_version": "v1",
	}, http.StatusOK)
}

// writeOffer renders an offer in the requested format. Downloads carry
// the offer file name.
func (s *Server) writeOffer(w http.ResponseWriter, r *http.Request, offer *output.Offer, format output.Format, download bool) {
	if f := r.URL.Query().Get("format"); f != "" {
		format = output.Format(f)
	}

	formatter, ok := s.formatters.GetFormatter(format)
	if !ok {
		s.fail(w, r, apperrors.Newf(apperrors.TypeInput, "unsupported format %q", format).
			WithContext("supported", s.formatters.Formats()))
		return
	}

	var buf bytes.Buffer
	if err := formatter.Render(&buf, offer); err != nil {
		s.fail(w, r, apperrors.Wrap(apperrors.TypeInternal, "failed to render offer", err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if download {
		w.Header().Set("Content-Disposition", attachment(offer.FileName(format)))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// fail logs err and writes it with the status of its type
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Debug("request rejected", fields...)
	}

	s.writeError(w, string(apperrors.TypeOf(err)), err.Error(), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}, status)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// statusFor maps an error type to an HTTP status
func statusFor(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.TypeInput, apperrors.TypeParsing:
		return http.StatusBadRequest
	case apperrors.TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
