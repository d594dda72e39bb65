// Package mcp implements the Model Context Protocol (MCP) server for
// Notelink. It exposes JSON-RPC 2.0 based tools for requesting link
// suggestions, recording feedback, and inspecting the index.
package mcp

import (
	"github.com/velvetmonkey/notelink/pkg/types"
)

// SuggestLinksArgs contains arguments for the suggest_links tool.
type SuggestLinksArgs struct {
	Content        string `json:"content"`                   // Note content as the editor sees it (required)
	NotePath       string `json:"note_path"`                 // Vault-relative path of the note being edited (required)
	Strictness     string `json:"strictness,omitempty"`      // conservative, balanced, or aggressive (default: balanced)
	MaxSuggestions int    `json:"max_suggestions,omitempty"` // Max results (default 10, max 50)
	Detailed       bool   `json:"detailed,omitempty"`        // Include per-signal score breakdowns
}

// SuggestLinksResult contains ranked link suggestions.
type SuggestLinksResult struct {
	Suggestions []types.Suggestion `json:"suggestions"` // Ranked suggestions, best first
	Total       int                `json:"total"`       // Number of suggestions returned
	Strictness  string             `json:"strictness"`  // Effective policy applied
	Generation  int64              `json:"generation"`  // Index generation the ranking was computed on
}

// RecordFeedbackArgs contains arguments for the record_feedback tool.
// Accepted is a pointer so a missing value can be distinguished from an
// explicit rejection.
type RecordFeedbackArgs struct {
	Entity     string `json:"entity"`           // Suggested entity name (required)
	SourceNote string `json:"source_note"`      // Note the suggestion appeared in (required)
	Origin     string `json:"origin,omitempty"` // Client identifier (e.g. editor plugin name)
	Accepted   *bool  `json:"accepted"`         // Whether the user accepted the suggestion (required)
}

// RecordFeedbackResult contains the result of recording feedback.
type RecordFeedbackResult struct {
	Recorded         bool   `json:"recorded"`          // Whether the event was persisted
	SuppressionCount int    `json:"suppression_count"` // Active suppression entries after this event
	Message          string `json:"message"`           // Status message
}

// RebuildIndexArgs contains arguments for the rebuild_index tool.
type RebuildIndexArgs struct{}

// RebuildIndexResult contains the result of a manual index rebuild.
type RebuildIndexResult struct {
	Generation    int64  `json:"generation"`     // Sequence number of the new generation
	TotalEntities int    `json:"total_entities"` // Entities in the new catalog
	Documents     int    `json:"documents"`      // Documents scanned from the vault
	Message       string `json:"message"`        // Status message
}

// GetIndexStatsArgs contains arguments for the get_index_stats tool.
type GetIndexStatsArgs struct{}

// GetIndexStatsResult reports the state of the live index generation.
type GetIndexStatsResult struct {
	Ready           bool  `json:"ready"`            // Whether a generation is live
	TotalEntities   int   `json:"total_entities"`   // Entities in the live catalog
	Generation      int64 `json:"generation"`       // Live generation sequence number
	CollisionGroups int   `json:"collision_groups"` // Normalized keys claimed by multiple entities
}

// GetSuppressionCountArgs contains arguments for the get_suppression_count tool.
type GetSuppressionCountArgs struct{}

// GetSuppressionCountResult reports the size of the suppression list.
type GetSuppressionCountResult struct {
	Count int `json:"count"` // Active suppression entries
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"` // Must be "2.0"
	Method  string      `json:"method"`  // Method name
	Params  interface{} `json:"params"`  // Method parameters
	ID      interface{} `json:"id"`      // Request ID (string, number, or null)
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`          // Must be "2.0"
	Result  interface{}   `json:"result,omitempty"` // Result (if successful)
	Error   *JSONRPCError `json:"error,omitempty"`  // Error (if failed)
	ID      interface{}   `json:"id"`               // Request ID
}

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	Code    int         `json:"code"`           // Error code
	Message string      `json:"message"`        // Error message
	Data    interface{} `json:"data,omitempty"` // Additional error data
}

// JSON-RPC error codes
const (
	ErrCodeParseError     = -32700 // Invalid JSON
	ErrCodeInvalidRequest = -32600 // Invalid request object
	ErrCodeMethodNotFound = -32601 // Method not found
	ErrCodeInvalidParams  = -32602 // Invalid method parameters
	ErrCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrCodeServerError    = -32000 // Server error
)

// ---------------------------------------------------------------------------
// Standard MCP protocol types (initialize / tools/list / tools/call)
// ---------------------------------------------------------------------------

// MCPInitializeParams holds the parameters sent by an MCP client in the
// initialize request.
type MCPInitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities,omitempty"`
	ClientInfo      MCPClientInfo          `json:"clientInfo"`
}

// MCPClientInfo identifies the connecting MCP client.
type MCPClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MCPServerInfo identifies this MCP server.
type MCPServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MCPServerCapabilities describes what this server supports.
type MCPServerCapabilities struct {
	Tools *MCPToolsCapability `json:"tools,omitempty"`
}

// MCPToolsCapability signals that the server exposes tools.
type MCPToolsCapability struct{}

// MCPInitializeResult is the response to the initialize request.
type MCPInitializeResult struct {
	ProtocolVersion string                `json:"protocolVersion"`
	Capabilities    MCPServerCapabilities `json:"capabilities"`
	ServerInfo      MCPServerInfo         `json:"serverInfo"`
}

// MCPTool describes a single tool exposed via the MCP tools/list endpoint.
type MCPTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// MCPToolsListResult is the response to the tools/list request.
type MCPToolsListResult struct {
	Tools []MCPTool `json:"tools"`
}

// MCPToolCallParams holds the parameters sent in a tools/call request.
type MCPToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// MCPToolCallContent is a single content block in a tool call response.
type MCPToolCallContent struct {
	Type string `json:"type"` // always "text" for now
	Text string `json:"text"`
}

// MCPToolCallResult is the response to a tools/call request.
type MCPToolCallResult struct {
	Content []MCPToolCallContent `json:"content"`
	IsError bool                 `json:"isError,omitempty"`
}
