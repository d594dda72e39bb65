package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/velvetmonkey/notelink/internal/config"
	"github.com/velvetmonkey/notelink/pkg/types"
)

// linkEngine is the subset of engine.LinkEngine used by the MCP server.
// Using an interface keeps the MCP package loosely coupled and testable.
type linkEngine interface {
	Suggest(ctx context.Context, content, notePath string, opts types.SuggestOptions) ([]types.Suggestion, error)
	RecordFeedback(ctx context.Context, entity, sourceNote, origin string, accepted bool) error
	IndexStats() types.IndexStats
	SuppressionCount() int
}

// RebuildFunc reloads the vault and rebuilds the index, returning the
// number of documents scanned. The server invokes it for the
// rebuild_index tool; the binary wires in the actual vault loader.
type RebuildFunc func(ctx context.Context) (int, error)

// Server implements the Model Context Protocol (MCP) for Notelink.
type Server struct {
	engine    linkEngine
	config    *config.Config
	rebuild   RebuildFunc
	sessionID string // unique ID generated once per MCP server lifetime
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithConfig injects a *config.Config into the Server.
func WithConfig(cfg *config.Config) ServerOption {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithRebuildFunc injects the vault reload used by the rebuild_index
// tool. Without it the tool reports that manual rebuilds are unavailable.
func WithRebuildFunc(fn RebuildFunc) ServerOption {
	return func(s *Server) {
		s.rebuild = fn
	}
}

// NewServer creates a new MCP server instance around a link engine.
func NewServer(eng linkEngine, opts ...ServerOption) *Server {
	s := &Server{
		engine:    eng,
		sessionID: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(s)
	}
	log.Printf("notelink-mcp: session ID: %s", s.sessionID)
	return s
}

// HandleRequest processes a JSON-RPC 2.0 request and returns a response.
// This is the main entry point for MCP protocol handling.
func (s *Server) HandleRequest(ctx context.Context, requestJSON []byte) ([]byte, error) {
	var req JSONRPCRequest
	if err := json.Unmarshal(requestJSON, &req); err != nil {
		return s.errorResponse(nil, ErrCodeParseError, "Parse error", err)
	}

	if req.JSONRPC != "2.0" {
		return s.errorResponse(req.ID, ErrCodeInvalidRequest, "Invalid JSON-RPC version", nil)
	}

	var result interface{}
	var err error

	switch req.Method {
	// Standard MCP protocol methods
	case "initialize":
		result, err = s.handleInitialize(ctx, req.Params)
	case "initialized":
		// Notification, no response body required; return empty object.
		result = map[string]interface{}{}
	case "tools/list":
		result, err = s.handleToolsList(ctx, req.Params)
	case "tools/call":
		result, err = s.handleToolsCall(ctx, req.Params)

	// Native JSON-RPC methods (kept for direct callers and tests)
	case "suggest_links":
		result, err = s.handleSuggestLinks(ctx, req.Params)
	case "record_feedback":
		result, err = s.handleRecordFeedback(ctx, req.Params)
	case "rebuild_index":
		result, err = s.handleRebuildIndex(ctx, req.Params)
	case "get_index_stats":
		result, err = s.handleGetIndexStats(ctx, req.Params)
	case "get_suppression_count":
		result, err = s.handleGetSuppressionCount(ctx, req.Params)
	default:
		return s.errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}

	if err != nil {
		return s.errorResponse(req.ID, ErrCodeServerError, err.Error(), nil)
	}

	return s.successResponse(req.ID, result)
}

// SuggestLinks extracts mentions from the note content and returns
// ranked link suggestions.
func (s *Server) SuggestLinks(ctx context.Context, args SuggestLinksArgs) (*SuggestLinksResult, error) {
	if args.Content == "" {
		return nil, fmt.Errorf("content is required")
	}
	if args.NotePath == "" {
		return nil, fmt.Errorf("note_path is required")
	}

	opts := types.SuggestOptions{
		Strictness:     types.ParseStrictness(args.Strictness),
		MaxSuggestions: args.MaxSuggestions,
		Detailed:       args.Detailed,
	}
	opts.Normalize()

	suggestions, err := s.engine.Suggest(ctx, args.Content, args.NotePath, opts)
	if err != nil {
		return nil, err
	}

	return &SuggestLinksResult{
		Suggestions: suggestions,
		Total:       len(suggestions),
		Strictness:  string(opts.Strictness),
		Generation:  s.engine.IndexStats().Generation,
	}, nil
}

// RecordFeedback persists one accept/reject decision.
func (s *Server) RecordFeedback(ctx context.Context, args RecordFeedbackArgs) (*RecordFeedbackResult, error) {
	if args.Entity == "" {
		return nil, fmt.Errorf("entity is required")
	}
	if args.SourceNote == "" {
		return nil, fmt.Errorf("source_note is required")
	}
	if args.Accepted == nil {
		return nil, fmt.Errorf("accepted is required")
	}

	if err := s.engine.RecordFeedback(ctx, args.Entity, args.SourceNote, args.Origin, *args.Accepted); err != nil {
		return nil, err
	}

	verdict := "rejection"
	if *args.Accepted {
		verdict = "acceptance"
	}
	return &RecordFeedbackResult{
		Recorded:         true,
		SuppressionCount: s.engine.SuppressionCount(),
		Message:          fmt.Sprintf("Recorded %s of %q for note %s", verdict, args.Entity, args.SourceNote),
	}, nil
}

// RebuildIndex reloads the vault and swaps in a fresh generation.
func (s *Server) RebuildIndex(ctx context.Context, args RebuildIndexArgs) (*RebuildIndexResult, error) {
	if s.rebuild == nil {
		return nil, fmt.Errorf("manual rebuild is not available in this deployment")
	}

	docs, err := s.rebuild(ctx)
	if err != nil {
		return nil, err
	}

	stats := s.engine.IndexStats()
	return &RebuildIndexResult{
		Generation:    stats.Generation,
		TotalEntities: stats.TotalEntities,
		Documents:     docs,
		Message:       fmt.Sprintf("Rebuilt index: generation %d with %d entities from %d documents", stats.Generation, stats.TotalEntities, docs),
	}, nil
}

// GetIndexStats reports the state of the live generation.
func (s *Server) GetIndexStats(ctx context.Context, args GetIndexStatsArgs) (*GetIndexStatsResult, error) {
	stats := s.engine.IndexStats()
	return &GetIndexStatsResult{
		Ready:           stats.Ready,
		TotalEntities:   stats.TotalEntities,
		Generation:      stats.Generation,
		CollisionGroups: stats.CollisionGroups,
	}, nil
}

// GetSuppressionCount reports the size of the suppression list.
func (s *Server) GetSuppressionCount(ctx context.Context, args GetSuppressionCountArgs) (*GetSuppressionCountResult, error) {
	return &GetSuppressionCountResult{Count: s.engine.SuppressionCount()}, nil
}

// ---------------------------------------------------------------------------
// JSON-RPC plumbing
// ---------------------------------------------------------------------------

func (s *Server) handleSuggestLinks(ctx context.Context, params interface{}) (interface{}, error) {
	var args SuggestLinksArgs
	if err := s.unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	return s.SuggestLinks(ctx, args)
}

func (s *Server) handleRecordFeedback(ctx context.Context, params interface{}) (interface{}, error) {
	var args RecordFeedbackArgs
	if err := s.unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	return s.RecordFeedback(ctx, args)
}

func (s *Server) handleRebuildIndex(ctx context.Context, params interface{}) (interface{}, error) {
	var args RebuildIndexArgs
	if err := s.unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	return s.RebuildIndex(ctx, args)
}

func (s *Server) handleGetIndexStats(ctx context.Context, params interface{}) (interface{}, error) {
	var args GetIndexStatsArgs
	if err := s.unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	return s.GetIndexStats(ctx, args)
}

func (s *Server) handleGetSuppressionCount(ctx context.Context, params interface{}) (interface{}, error) {
	var args GetSuppressionCountArgs
	if err := s.unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	return s.GetSuppressionCount(ctx, args)
}

// unmarshalParams converts the loosely-typed params value into the
// target args struct by round-tripping through JSON.
func (s *Server) unmarshalParams(params interface{}, target interface{}) error {
	if params == nil {
		return nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func (s *Server) successResponse(id interface{}, result interface{}) ([]byte, error) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
	return json.Marshal(resp)
}

func (s *Server) errorResponse(id interface{}, code int, message string, err error) ([]byte, error) {
	rpcErr := &JSONRPCError{
		Code:    code,
		Message: message,
	}
	if err != nil {
		rpcErr.Data = err.Error()
	}
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		Error:   rpcErr,
		ID:      id,
	}
	return json.Marshal(resp)
}

// ---------------------------------------------------------------------------
// Standard MCP protocol handlers
// ---------------------------------------------------------------------------

// handleInitialize handles the MCP initialize handshake.
func (s *Server) handleInitialize(ctx context.Context, params interface{}) (interface{}, error) {
	return MCPInitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities: MCPServerCapabilities{
			Tools: &MCPToolsCapability{},
		},
		ServerInfo: MCPServerInfo{
			Name:    "notelink",
			Version: "1.0.0",
		},
	}, nil
}

// handleToolsList returns the list of all tools this server exposes.
func (s *Server) handleToolsList(ctx context.Context, params interface{}) (interface{}, error) {
	return MCPToolsListResult{Tools: s.buildToolsList()}, nil
}

// handleToolsCall dispatches a tools/call request to the appropriate
// handler and wraps the result in the MCP content envelope.
func (s *Server) handleToolsCall(ctx context.Context, params interface{}) (interface{}, error) {
	var p MCPToolCallParams
	if err := s.unmarshalParams(params, &p); err != nil {
		return nil, err
	}

	// Re-marshal arguments so they can be passed to the existing handlers
	// which expect an interface{} produced by JSON unmarshal.
	argsJSON, err := json.Marshal(p.Arguments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arguments: %w", err)
	}
	var rawParams interface{}
	if err := json.Unmarshal(argsJSON, &rawParams); err != nil {
		return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
	}

	var result interface{}
	var handlerErr error

	switch p.Name {
	case "suggest_links":
		result, handlerErr = s.handleSuggestLinks(ctx, rawParams)
	case "record_feedback":
		result, handlerErr = s.handleRecordFeedback(ctx, rawParams)
	case "rebuild_index":
		result, handlerErr = s.handleRebuildIndex(ctx, rawParams)
	case "get_index_stats":
		result, handlerErr = s.handleGetIndexStats(ctx, rawParams)
	case "get_suppression_count":
		result, handlerErr = s.handleGetSuppressionCount(ctx, rawParams)
	default:
		return &MCPToolCallResult{
			Content: []MCPToolCallContent{{Type: "text", Text: fmt.Sprintf("unknown tool: %s", p.Name)}},
			IsError: true,
		}, nil
	}

	if handlerErr != nil {
		return &MCPToolCallResult{
			Content: []MCPToolCallContent{{Type: "text", Text: handlerErr.Error()}},
			IsError: true,
		}, nil
	}

	text, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &MCPToolCallResult{
		Content: []MCPToolCallContent{{Type: "text", Text: string(text)}},
	}, nil
}

// buildToolsList returns the canonical list of MCP tool definitions.
func (s *Server) buildToolsList() []MCPTool {
	return []MCPTool{
		{
			Name: "suggest_links",
			Description: "Analyze note content and suggest [[wikilinks]] to other notes in the vault. " +
				"Existing links and code blocks are never touched, and suggestions the user has " +
				"previously rejected are suppressed automatically.",
			InputSchema: map[string]interface{}{
				"type":     "object",
				"required": []string{"content", "note_path"},
				"properties": map[string]interface{}{
					"content":         map[string]interface{}{"type": "string", "description": "Note content as currently seen in the editor (required)"},
					"note_path":       map[string]interface{}{"type": "string", "description": "Vault-relative path of the note being edited (required)"},
					"strictness":      map[string]interface{}{"type": "string", "description": "Suggestion policy: conservative (exact/alias only), balanced (adds fuzzy, default), or aggressive (adds partial and contextual)"},
					"max_suggestions": map[string]interface{}{"type": "integer", "description": "Maximum suggestions to return (default 10, max 50)"},
					"detailed":        map[string]interface{}{"type": "boolean", "description": "Include per-signal score breakdowns for each suggestion"},
				},
			},
		},
		{
			Name: "record_feedback",
			Description: "Record whether the user accepted or rejected a link suggestion. " +
				"Repeated rejections suppress the suggestion; consistent acceptance boosts it.",
			InputSchema: map[string]interface{}{
				"type":     "object",
				"required": []string{"entity", "source_note", "accepted"},
				"properties": map[string]interface{}{
					"entity":      map[string]interface{}{"type": "string", "description": "Entity name that was suggested (required)"},
					"source_note": map[string]interface{}{"type": "string", "description": "Path of the note the suggestion appeared in (required)"},
					"accepted":    map[string]interface{}{"type": "boolean", "description": "true if the user accepted the suggestion, false if rejected (required)"},
					"origin":      map[string]interface{}{"type": "string", "description": "Client identifier, e.g. the editor plugin name"},
				},
			},
		},
		{
			Name:        "rebuild_index",
			Description: "Rescan the vault and rebuild the entity index immediately. The previous index stays live until the new one is ready.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "get_index_stats",
			Description: "Report the state of the entity index: readiness, entity count, generation number, and name collisions.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "get_suppression_count",
			Description: "Report how many suggestion keys are currently suppressed by accumulated negative feedback.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
