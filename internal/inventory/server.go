package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names exposed by the inventory MCP server.
const (
	ToolOverview  = "get_inventory_overview"
	ToolAccounts  = "get_accounts"
	ToolClusters  = "get_clusters"
	ToolInstances = "get_instances"
)

// overviewArgs is the (empty) argument set for get_inventory_overview.
type overviewArgs struct{}

// accountArgs filters account queries.
type accountArgs struct {
	// AccountName optionally selects a single account by name.
	AccountName string `json:"account_name,omitempty"`
}

// clusterArgs filters cluster and instance queries.
type clusterArgs struct {
	// ClusterName optionally narrows the query to a single cluster.
	ClusterName string `json:"cluster_name,omitempty"`
}

// toolServer binds the inventory [Client] to the MCP tool handlers.
type toolServer struct {
	client *Client
}

// NewServer builds the MCP server exposing the inventory tools. The caller
// runs it over a transport of their choice, typically stdio:
//
//	server.Run(ctx, &mcp.StdioTransport{})
func NewServer(client *Client, version string) *mcpsdk.Server {
	s := &toolServer{client: client}

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "inventa-tools",
		Version: version,
	}, nil)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolOverview,
		Description: "Retrieves a summary of the cloud inventory, including counts of running/stopped/archived clusters, total instances, and provider details",
	}, s.getInventoryOverview)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolAccounts,
		Description: "Retrieves a list of all inventory accounts or details for a specific account by name",
	}, s.getAccounts)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolClusters,
		Description: "Retrieves a list of all inventory clusters or details for a specific cluster by name",
	}, s.getClusters)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolInstances,
		Description: "Retrieves a list of all inventory instances or details for a specific instance by name",
	}, s.getInstances)

	return server
}

func (s *toolServer) getInventoryOverview(ctx context.Context, req *mcpsdk.CallToolRequest, _ overviewArgs) (*mcpsdk.CallToolResult, any, error) {
	overview, err := s.client.Overview(ctx)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(overview)
}

func (s *toolServer) getAccounts(ctx context.Context, req *mcpsdk.CallToolRequest, args accountArgs) (*mcpsdk.CallToolResult, any, error) {
	accounts, err := s.client.Accounts(ctx, args.AccountName)
	if err != nil {
		return errorResult(err), nil, nil
	}
	// The upstream API shipped this list under "clusters" and clients grew
	// to depend on it, so the key stays.
	return jsonResult(map[string]any{
		"clusters": emptyIfNil(accounts),
		"count":    len(accounts),
	})
}

func (s *toolServer) getClusters(ctx context.Context, req *mcpsdk.CallToolRequest, args clusterArgs) (*mcpsdk.CallToolResult, any, error) {
	clusters, err := s.client.Clusters(ctx, args.ClusterName)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(map[string]any{
		"clusters": emptyIfNil(clusters),
		"count":    len(clusters),
	})
}

func (s *toolServer) getInstances(ctx context.Context, req *mcpsdk.CallToolRequest, args clusterArgs) (*mcpsdk.CallToolResult, any, error) {
	instances, err := s.client.Instances(ctx, args.ClusterName)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(map[string]any{
		"instances": emptyIfNil(instances),
		"count":     len(instances),
	})
}

// jsonResult marshals v into a single text content block.
func jsonResult(v any) (*mcpsdk.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Errorf("inventory: encode result: %w", err)), nil, nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil, nil
}

// errorResult converts err into a tool-level error result so the failure is
// reported to the caller instead of tearing down the session.
func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
	}
}

// emptyIfNil keeps JSON output as [] rather than null for absent lists.
func emptyIfNil(list []any) []any {
	if list == nil {
		return []any{}
	}
	return list
}
