// Package mcpserver exposes the extraction service as Model Context
// Protocol tools.
package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-extract/internal/extractors"
)

// Tool names
const (
	ToolExtractDocument = "extract_document"
	ToolDetectMimeType  = "detect_mime_type"
	ToolCacheStats      = "cache_stats"
	ToolClearCache      = "clear_cache"
	ToolListFormats     = "list_formats"
)

// Server is an MCP server backed by an ExtractionService
type Server struct {
	server            *mcp.Server
	extractionService driving.ExtractionService
	logger            *slog.Logger
}

// NewServer creates a new MCP server with every extraction tool registered
func NewServer(version string, extractionService driving.ExtractionService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "sercha-extract",
			Version: version,
		}, nil),
		extractionService: extractionService,
		logger:            logger.With("component", "mcp"),
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying SDK server
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// Run serves a single session on transport until it closes or ctx is done
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("mcp server starting")
	return s.server.Run(ctx, transport)
}

// RunStdio serves over stdin and stdout
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.addTool(&mcp.Tool{
		Name:        ToolExtractDocument,
		Description: "Extract text, tables and metadata from a document given as a path or URI, or as base64 content.",
		InputSchema: inputSchema(map[string]any{
			"path":      map[string]any{"type": "string", "description": "File path, http(s):// or s3:// URI"},
			"content":   map[string]any{"type": "string", "description": "Base64-encoded document bytes"},
			"mime_type": map[string]any{"type": "string", "description": "MIME type; detected when omitted"},
			"config":    map[string]any{"type": "object", "description": "Extraction config overrides"},
		}, nil),
	}, s.extractDocument)

	s.addTool(&mcp.Tool{
		Name:        ToolDetectMimeType,
		Description: "Detect the MIME type of a file path or base64 content and report whether it can be extracted.",
		InputSchema: inputSchema(map[string]any{
			"path":    map[string]any{"type": "string", "description": "Local file path"},
			"content": map[string]any{"type": "string", "description": "Base64-encoded document bytes"},
		}, nil),
	}, s.detectMimeType)

	s.addTool(&mcp.Tool{
		Name:        ToolCacheStats,
		Description: "Report the number of cached extraction results and their size.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return s.extractionService.CacheStats(ctx)
	})

	s.addTool(&mcp.Tool{
		Name:        ToolClearCache,
		Description: "Drop every cached extraction result.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, s.clearCache)

	s.addTool(&mcp.Tool{
		Name:        ToolListFormats,
		Description: "List every supported MIME type.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(_ context.Context, _ json.RawMessage) (any, error) {
		return map[string]any{"formats": s.extractionService.SupportedMimeTypes()}, nil
	})
}

type toolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// addTool registers fn. Errors become tool errors and successful responses
// are returned as JSON text.
func (s *Server) addTool(tool *mcp.Tool, fn toolFunc) {
	logger := s.logger.With("tool", tool.Name)
	s.server.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := fn(ctx, req.Params.Arguments)
		if err != nil {
			logger.Warn("tool call failed", "error", err)
			var res mcp.CallToolResult
			res.SetError(toolError(err))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

type extractArgs struct {
	Path     string          `json:"path"`
	Content  string          `json:"content"`
	MimeType string          `json:"mime_type"`
	Config   json.RawMessage `json:"config"`
}

func (s *Server) extractDocument(ctx context.Context, raw json.RawMessage) (any, error) {
	var args extractArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	cfg, err := domain.ParseExtractionConfig(args.Config)
	if err != nil {
		return nil, err
	}

	switch {
	case args.Path != "" && args.Content != "":
		return nil, domain.NewValidationError("provide either path or content, not both")
	case args.Path != "":
		return s.extractionService.ExtractFile(ctx, args.Path, args.MimeType, cfg)
	case args.Content != "":
		data, err := base64.StdEncoding.DecodeString(args.Content)
		if err != nil {
			return nil, domain.NewValidationError("content is not valid base64")
		}
		return s.extractionService.ExtractBytes(ctx, data, args.MimeType, cfg)
	default:
		return nil, domain.NewValidationError("path or content is required")
	}
}

type detectArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type detectResponse struct {
	MimeType  string `json:"mime_type"`
	Extension string `json:"extension,omitempty"`
	Supported bool   `json:"supported"`
}

func (s *Server) detectMimeType(_ context.Context, raw json.RawMessage) (any, error) {
	var args detectArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	var resp detectResponse
	switch {
	case args.Content != "":
		data, err := base64.StdEncoding.DecodeString(args.Content)
		if err != nil {
			return nil, domain.NewValidationError("content is not valid base64")
		}
		resp.MimeType = extractors.DetectMimeType(data, args.Path)
		resp.Extension = mimetype.Detect(data).Extension()
	case args.Path != "":
		if mt := extractors.MimeTypeFromExtension(args.Path); mt != "" {
			resp.MimeType = mt
			break
		}
		detected, err := mimetype.DetectFile(args.Path)
		if err != nil {
			return nil, domain.NewIOError(fmt.Sprintf("failed to read %s", args.Path), err)
		}
		resp.MimeType = extractors.NormalizeMimeType(detected.String())
		resp.Extension = detected.Extension()
	default:
		return nil, domain.NewValidationError("path or content is required")
	}

	for _, mt := range s.extractionService.SupportedMimeTypes() {
		if mt == resp.MimeType {
			resp.Supported = true
			break
		}
	}
	return resp, nil
}

type clearResponse struct {
	RemovedEntries uint64 `json:"removed_entries"`
	FreedBytes     uint64 `json:"freed_bytes"`
}

func (s *Server) clearCache(ctx context.Context, _ json.RawMessage) (any, error) {
	stats, err := s.extractionService.CacheStats(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.extractionService.ClearCache(ctx); err != nil {
		return nil, err
	}
	return clearResponse{RemovedEntries: stats.TotalEntries, FreedBytes: stats.TotalSizeBytes}, nil
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.NewValidationError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

// toolError prefixes the error with its taxonomy name
func toolError(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return fmt.Errorf("%s: %s", de.Kind.TypeName(), err.Error())
	}
	return errors.New(err.Error())
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
