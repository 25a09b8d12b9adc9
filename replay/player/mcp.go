package player

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Microsoft/clarity-tools/kit"
)

// RegisterMCP registers replay tools on an MCP server.
func (p *Player) RegisterMCP(srv *mcp.Server) {
	p.registerListSessionsTool(srv)
	p.registerGetSnapshotTool(srv)
	p.registerSessionStatsTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
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

// --- list_sessions ---

type listSessionsRequest struct {
	Limit int `json:"limit,omitempty"`
}

func (p *Player) registerListSessionsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "replay_list_sessions",
		Description: "List replayed capture sessions in the archive, most recent first.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Max results (default 50)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*listSessionsRequest)
		return p.ListSessions(ctx, r.Limit)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r listSessionsRequest
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- get_snapshot ---

type getSnapshotRequest struct {
	SnapshotID string `json:"snapshot_id"`
	SessionID  string `json:"session_id,omitempty"`
	Markdown   bool   `json:"markdown,omitempty"`
}

type snapshotResponse struct {
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Markdown string    `json:"markdown,omitempty"`
	List     []*Snapshot `json:"list,omitempty"`
}

func (p *Player) registerGetSnapshotTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "replay_get_snapshot",
		Description: "Fetch a reconstructed snapshot by ID (HTML or Markdown), or list a session's snapshots when only session_id is given.",
		InputSchema: inputSchema(map[string]any{
			"snapshot_id": map[string]any{"type": "string", "description": "Snapshot ID"},
			"session_id":  map[string]any{"type": "string", "description": "List snapshots of this session instead"},
			"markdown":    map[string]any{"type": "boolean", "description": "Return Markdown instead of HTML"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*getSnapshotRequest)
		if r.SnapshotID == "" {
			list, err := p.ListSnapshots(ctx, r.SessionID)
			if err != nil {
				return nil, err
			}
			return &snapshotResponse{List: list}, nil
		}
		if r.Markdown {
			md, err := p.SnapshotMarkdown(ctx, r.SnapshotID)
			if err != nil {
				return nil, err
			}
			return &snapshotResponse{Markdown: md}, nil
		}
		snap, err := p.GetSnapshot(ctx, r.SnapshotID)
		if err != nil {
			return nil, err
		}
		return &snapshotResponse{Snapshot: snap}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r getSnapshotRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- session_stats ---

type sessionStatsRequest struct {
	SessionID string `json:"session_id"`
}

func (p *Player) registerSessionStatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "replay_session_stats",
		Description: "Replay counters for a session: envelopes, records, skipped operations, snapshots.",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{"type": "string", "description": "Session ID"},
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*sessionStatsRequest)
		return p.SessionStats(ctx, r.SessionID)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r sessionStatsRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
