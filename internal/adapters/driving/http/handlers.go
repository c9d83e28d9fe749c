package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	ErrorType  string `json:"error_type" example:"ValidationError"`
	Message    string `json:"message" example:"no files provided for extraction"`
	StatusCode int    `json:"status_code" example:"400"`
}

// HealthResponse represents the health check response
// @Description Health check response
type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse represents the readiness response
// @Description Readiness check response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// InfoResponse describes the running service
// @Description Service information
type InfoResponse struct {
	Version            string   `json:"version" example:"1.0.0"`
	Formats            []string `json:"formats"`
	OcrBackends        []string `json:"ocr_backends"`
	EmbeddingAvailable bool     `json:"embedding_available"`
	AuthEnabled        bool     `json:"auth_enabled"`
}

// BatchRequest extracts documents by path or URI
// @Description Batch extraction request
type BatchRequest struct {
	Locations []string        `json:"locations" example:"s3://docs/report.pdf"`
	Config    json.RawMessage `json:"config,omitempty" swaggertype:"object"`
}

// ChunkRequest splits text into chunks
// @Description Chunking request
type ChunkRequest struct {
	Text   string                 `json:"text" example:"First paragraph.\n\nSecond paragraph."`
	Config *domain.ChunkingConfig `json:"config,omitempty"`
}

// ChunkResponse is the result of a chunking request
// @Description Chunking response
type ChunkResponse struct {
	Chunks         []domain.Chunk `json:"chunks"`
	ChunkCount     int            `json:"chunk_count" example:"2"`
	InputSizeBytes int            `json:"input_size_bytes" example:"35"`
}

// CacheClearResponse reports what a cache clear removed
// @Description Cache clear response
type CacheClearResponse struct {
	RemovedEntries uint64 `json:"removed_entries" example:"12"`
	FreedBytes     uint64 `json:"freed_bytes" example:"48213"`
}

// FormatsResponse lists the supported MIME types
// @Description Supported formats
type FormatsResponse struct {
	Formats []string `json:"formats"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Version: s.version})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the configured cache backends
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse  "A dependency is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleInfo godoc
// @Summary      Service information
// @Description  Returns version, supported formats and plugin availability
// @Tags         Health
// @Produce      json
// @Success      200  {object}  InfoResponse
// @Router       /info [get]
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	plugins := s.pluginService.List()
	writeJSON(w, http.StatusOK, InfoResponse{
		Version:            s.version,
		Formats:            s.extractionService.SupportedMimeTypes(),
		OcrBackends:        plugins.OcrBackends,
		EmbeddingAvailable: s.pluginService.EmbeddingStatus().Available,
		AuthEnabled:        s.tokens != nil,
	})
}

// handleSwagger serves the generated OpenAPI document
func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, doc)
}

// Extraction endpoints

// handleExtract godoc
// @Summary      Extract documents
// @Description  Extracts text, tables and metadata from uploaded files. Several files are extracted as a batch.
// @Tags         Extraction
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        files          formData  file    true   "Documents to extract"
// @Param        config         formData  string  false  "Extraction config as JSON"
// @Param        mime_type      formData  string  false  "MIME type override for every file"
// @Param        output_format  formData  string  false  "plain, markdown, djot or html"
// @Success      200  {array}   domain.ExtractionResult
// @Failure      400  {object}  ErrorResponse  "Invalid request"
// @Failure      415  {object}  ErrorResponse  "Unsupported format"
// @Failure      422  {object}  ErrorResponse  "Document could not be parsed"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /extract [post]
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", s.maxUpload))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	cfg, err := domain.ParseExtractionConfig([]byte(r.FormValue("config")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if f := r.FormValue("output_format"); f != "" {
		cfg.OutputFormat = domain.OutputFormat(strings.ToLower(f))
	}
	override := r.FormValue("mime_type")

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided for extraction")
		return
	}

	docs := make([]driving.Document, 0, len(headers))
	for _, fh := range headers {
		doc, err := readPart(fh, override)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		docs = append(docs, doc)
	}

	if len(docs) == 1 {
		result, err := s.extractionService.ExtractBytes(r.Context(), docs[0].Data, docs[0].MimeType, cfg)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []*domain.ExtractionResult{result})
		return
	}

	results, err := s.extractionService.BatchExtractBytes(r.Context(), docs, cfg)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// readPart loads an uploaded file. Generic content types are left empty so
// the service sniffs the bytes.
func readPart(fh *multipart.FileHeader, override string) (driving.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return driving.Document{}, fmt.Errorf("failed to open %s", fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return driving.Document{}, fmt.Errorf("failed to read %s", fh.Filename)
	}

	mimeType := override
	if mimeType == "" {
		mimeType = fh.Header.Get("Content-Type")
	}
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}
	return driving.Document{Data: data, MimeType: mimeType, Name: fh.Filename}, nil
}

// handleBatch godoc
// @Summary      Batch extract by location
// @Description  Fetches and extracts documents by path or URI. Results keep request order; failed documents carry metadata.error.
// @Tags         Extraction
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      BatchRequest  true  "Locations and optional config"
// @Success      200      {array}   domain.ExtractionResult
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Router       /batch [post]
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Locations) == 0 {
		writeError(w, http.StatusBadRequest, "no locations provided for extraction")
		return
	}

	cfg, err := domain.ParseExtractionConfig(req.Config)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	results, err := s.extractionService.BatchExtractFiles(r.Context(), req.Locations, cfg)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleChunk godoc
// @Summary      Chunk text
// @Description  Splits text into overlapping chunks with byte offsets
// @Tags         Extraction
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ChunkRequest  true  "Text and optional chunking config"
// @Success      200      {object}  ChunkResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Router       /chunk [post]
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	var req ChunkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxUpload)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text cannot be empty")
		return
	}

	chunks, err := s.extractionService.Chunk(r.Context(), req.Text, req.Config)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	writeJSON(w, http.StatusOK, ChunkResponse{
		Chunks:         chunks,
		ChunkCount:     len(chunks),
		InputSizeBytes: len(req.Text),
	})
}

// handleFormats godoc
// @Summary      List supported formats
// @Description  Returns every MIME type with a registered extractor
// @Tags         Extraction
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  FormatsResponse
// @Router       /formats [get]
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FormatsResponse{Formats: s.extractionService.SupportedMimeTypes()})
}

// Cache endpoints

// handleCacheStats godoc
// @Summary      Cache statistics
// @Description  Returns the number of cached results and their content size
// @Tags         Cache
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.CacheStats
// @Router       /cache/stats [get]
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.extractionService.CacheStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCacheClear godoc
// @Summary      Clear cache
// @Description  Drops every cached result
// @Tags         Cache
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  CacheClearResponse
// @Failure      403  {object}  ErrorResponse  "Admin scope required"
// @Router       /cache [delete]
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	stats, err := s.extractionService.CacheStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.extractionService.ClearCache(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CacheClearResponse{
		RemovedEntries: stats.TotalEntries,
		FreedBytes:     stats.TotalSizeBytes,
	})
}

// Plugin endpoints

// handlePlugins godoc
// @Summary      List plugins
// @Description  Returns the registered OCR backends, post-processors, validators and extractors
// @Tags         Plugins
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driving.PluginList
// @Router       /plugins [get]
func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pluginService.List())
}

// handleEmbeddingStatus godoc
// @Summary      Embedding status
// @Description  Reports whether chunk embeddings are available
// @Tags         Plugins
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driving.EmbeddingStatus
// @Router       /embedding [get]
func (s *Server) handleEmbeddingStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pluginService.EmbeddingStatus())
}

// handleConfigureEmbedding godoc
// @Summary      Configure embeddings
// @Description  Replaces the chunk embedding provider. An empty provider disables embeddings.
// @Tags         Plugins
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.EmbeddingSettingsInput  true  "Embedding settings"
// @Success      200      {object}  driving.EmbeddingStatus
// @Failure      400      {object}  ErrorResponse  "Invalid provider"
// @Router       /embedding [put]
func (s *Server) handleConfigureEmbedding(w http.ResponseWriter, r *http.Request) {
	var req driving.EmbeddingSettingsInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := s.pluginService.ConfigureEmbedding(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Helper functions

// statusForError maps the error taxonomy to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case domain.KindParsing, domain.KindOCR:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	writeJSON(w, status, ErrorResponse{
		ErrorType:  domain.KindOf(err).TypeName(),
		Message:    err.Error(),
		StatusCode: status,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	errorType := "Error"
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		errorType = domain.KindValidation.TypeName()
	case http.StatusUnauthorized, http.StatusForbidden:
		errorType = "AuthError"
	}
	writeJSON(w, status, ErrorResponse{ErrorType: errorType, Message: message, StatusCode: status})
}
