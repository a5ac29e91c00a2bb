// ABOUTME: MCP server assembly
// ABOUTME: Registers every expiry tracker tool and resource on one server
package handlers

import (
	"github.com/harperreed/expirytrack/notify"
	"github.com/harperreed/expirytrack/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds the MCP server. A nil runner leaves out the notification tool.
func NewServer(svc *service.Service, runner *notify.Runner, version string) *mcp.Server {
	assetHandlers := NewAssetHandlers(svc)
	catalogHandlers := NewCatalogHandlers(svc)
	resourceHandlers := NewResourceHandlers(svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "expirytrack",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_assets",
		Description: "List assets visible to the acting user with days remaining and status",
	}, assetHandlers.ListAssets)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_asset",
		Description: "Get one asset by ID or external asset ID",
	}, assetHandlers.GetAsset)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "register_asset",
		Description: "Register a new asset; its expiration date is computed from the rule's validity window",
	}, assetHandlers.RegisterAsset)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_asset",
		Description: "Update an asset's fields; changing the rule or inspection date recomputes expiration",
	}, assetHandlers.UpdateAsset)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "renew_asset",
		Description: "Record a new inspection for an asset and move its expiration date forward",
	}, assetHandlers.RenewAsset)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_asset",
		Description: "Delete an asset",
	}, assetHandlers.DeleteAsset)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List validity rules in the catalog",
	}, catalogHandlers.ListRules)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_rule",
		Description: "Add a validity rule (admin only)",
	}, catalogHandlers.AddRule)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_rule",
		Description: "Update a validity rule (admin only)",
	}, catalogHandlers.UpdateRule)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_rule",
		Description: "Delete a validity rule no asset uses (admin only)",
	}, catalogHandlers.DeleteRule)

	if runner != nil {
		notifyHandlers := NewNotifyHandlers(svc, runner)
		mcp.AddTool(server, &mcp.Tool{
			Name:        "run_notification_check",
			Description: "Run the daily expiry notification check now (admin only)",
		}, notifyHandlers.RunCheck)
	}

	server.AddResource(&mcp.Resource{
		URI:         catalogURI,
		Name:        "catalog",
		Description: "Validity rules by domain and topic",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadCatalog)

	return server
}
