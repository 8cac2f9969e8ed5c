package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/theapemachine/ukg/pkg/catalog"
	"github.com/theapemachine/ukg/pkg/engine"
	"github.com/theapemachine/ukg/pkg/memory"
)

const defaultRecallLimit = 5

/*
Toolset exposes an engine to MCP clients: the full query pipeline, graph
search, and memory recall.
*/
type Toolset struct {
	engine *engine.Engine
}

func NewToolset(eng *engine.Engine) *Toolset {
	return &Toolset{engine: eng}
}

/*
NewServer builds an MCP server with every ukg tool registered.
*/
func NewServer(eng *engine.Engine, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"ukg",
		version,
		server.WithLogging(),
		server.WithToolCapabilities(true),
	)

	NewToolset(eng).Register(srv)
	return srv
}

func (toolset *Toolset) Register(srv *server.MCPServer) {
	srv.AddTool(NewQueryTool(), toolset.HandleQuery)
	srv.AddTool(NewGraphSearchTool(), toolset.HandleGraphSearch)
	srv.AddTool(NewMemoryRecallTool(), toolset.HandleMemoryRecall)
}

func NewQueryTool() mcp.Tool {
	return mcp.NewTool(
		"ukg_query",
		mcp.WithDescription("Run a question through the knowledge graph pipeline. Short questions are answered directly, longer or regulatory ones are simulated by the expert panel and escalated to agents when confidence is low."),
		mcp.WithString("query", mcp.Description("The question to answer."), mcp.Required()),
		mcp.WithString("domain", mcp.Description("Optional domain, e.g. healthcare or technology.")),
		mcp.WithString("session_id", mcp.Description("Optional session; answers are remembered under it.")),
	)
}

func NewGraphSearchTool() mcp.Tool {
	return mcp.NewTool(
		"ukg_graph_search",
		mcp.WithDescription("Search node labels and descriptions in the knowledge graph."),
		mcp.WithString("text", mcp.Description("Text to search for."), mcp.Required()),
		mcp.WithNumber("axis", mcp.Description("Restrict the search to one axis, 1 to 13.")),
	)
}

func NewMemoryRecallTool() mcp.Tool {
	return mcp.NewTool(
		"ukg_memory_recall",
		mcp.WithDescription("Recall remembered answers and facts that share keywords with a query."),
		mcp.WithString("query", mcp.Description("Text to recall against."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries, default 5.")),
	)
}

func (toolset *Toolset) HandleQuery(
	ctx context.Context, req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	query, ok := args["query"].(string)
	if !ok {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	qctx := map[string]any{}

	for _, key := range []string{"domain", "session_id"} {
		if value, ok := args[key].(string); ok && value != "" {
			qctx[key] = value
		}
	}

	log.Info("ukg_query", "session", qctx["session_id"], "domain", qctx["domain"])

	result := toolset.engine.Router.ProcessQuery(ctx, query, qctx)
	if !result.Success {
		return mcp.NewToolResultError(result.Error), nil
	}

	return jsonResult(result)
}

func (toolset *Toolset) HandleGraphSearch(
	ctx context.Context, req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	var axes []int

	if raw, ok := args["axis"].(float64); ok {
		axis := int(raw)

		if !catalog.ValidAxis(axis) {
			return mcp.NewToolResultError(fmt.Sprintf("axis must be between 1 and 13, got %d", axis)), nil
		}

		axes = append(axes, axis)
	}

	return jsonResult(toolset.engine.Graph.Search(text, axes...))
}

func (toolset *Toolset) HandleMemoryRecall(
	ctx context.Context, req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	limit := defaultRecallLimit
	if raw, ok := args["limit"].(float64); ok && raw >= 1 {
		limit = int(raw)
	}

	return jsonResult(toolset.engine.Memory.Retrieve(query, memory.RetrieveOptions{Limit: limit}))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), err
	}

	return mcp.NewToolResultText(string(buf)), nil
}
