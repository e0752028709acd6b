package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sokolink/sokolink/internal/market"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Manager   *market.Manager
	Assistant Assistant // optional; if nil, assistance tools return an error
}

// NewMCPServer creates an MCP server with all marketplace tools and
// resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"sokolink",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Soko Link — local marketplace: find businesses, browse and list community items, manage conversations."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("search_market",
			mcp.WithDescription("Search for local businesses and community items matching a query around a location."),
			mcp.WithString("query", mcp.Description("What to search for, e.g. 'coffee shop'"), mcp.Required()),
			mcp.WithString("location", mcp.Description("Area to search in, e.g. 'Nairobi'"), mcp.Required()),
		),
		mcpSearchMarket(deps),
	)

	s.AddTool(
		mcp.NewTool("browse_items",
			mcp.WithDescription("Browse community items for sale: the user's own listings followed by discovered ones."),
			mcp.WithString("location", mcp.Description("Area to browse (default 'Kenya')")),
		),
		mcpBrowseItems(deps),
	)

	s.AddTool(
		mcp.NewTool("list_item",
			mcp.WithDescription("List an item for sale on the community marketplace."),
			mcp.WithString("title", mcp.Description("Item title"), mcp.Required()),
			mcp.WithString("price", mcp.Description("Asking price, e.g. 'KES 5,000'"), mcp.Required()),
			mcp.WithString("description", mcp.Description("Item description")),
			mcp.WithString("category", mcp.Description("Item category")),
			mcp.WithString("condition", mcp.Description("Item condition")),
			mcp.WithString("location", mcp.Description("Where the item is located")),
			mcp.WithString("seller_name", mcp.Description("Name to show as the seller")),
		),
		mcpListItem(deps),
	)

	s.AddTool(
		mcp.NewTool("inbox_status",
			mcp.WithDescription("Report conversation counts and unread messages for both roles."),
		),
		mcpInboxStatus(deps),
	)

	s.AddTool(
		mcp.NewTool("negotiation_tip",
			mcp.WithDescription("Get negotiation advice for an item the user is interested in."),
			mcp.WithString("item_name", mcp.Description("Name of the item"), mcp.Required()),
			mcp.WithString("message", mcp.Description("What the user wants help with"), mcp.Required()),
		),
		mcpNegotiationTip(deps),
	)

	s.AddTool(
		mcp.NewTool("suggest_price",
			mcp.WithDescription("Suggest a starting price in KES for an item being listed."),
			mcp.WithString("title", mcp.Description("Item title"), mcp.Required()),
			mcp.WithString("description", mcp.Description("Item description")),
		),
		mcpSuggestPrice(deps),
	)

	s.AddTool(
		mcp.NewTool("draft_description",
			mcp.WithDescription("Draft a short sales description for an item title."),
			mcp.WithString("title", mcp.Description("Item title"), mcp.Required()),
		),
		mcpDraftDescription(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"market://profile",
			"Business Profile",
			mcp.WithResourceDescription("The seller's business profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"market://inbox",
			"Conversations",
			mcp.WithResourceDescription("All marketplace conversations, newest first"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceInbox(deps),
	)

	return s
}

func mcpSearchMarket(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}
		location, err := req.RequireString("location")
		if err != nil {
			return mcpError("location is required"), nil
		}

		if err := deps.Manager.Search(ctx, query, location); err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}

		b, err := json.Marshal(map[string]any{
			"businesses": deps.Manager.Businesses(),
			"items":      deps.Manager.AIItems(),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpBrowseItems(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		location := req.GetString("location", "Kenya")

		if err := deps.Manager.BrowseCommunity(ctx, location); err != nil {
			return mcpError(fmt.Sprintf("browsing failed: %v", err)), nil
		}

		b, err := json.Marshal(deps.Manager.CommunityItems())
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal items: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListItem(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		price, err := req.RequireString("price")
		if err != nil {
			return mcpError("price is required"), nil
		}

		draft := market.ItemDraft{
			Title:       title,
			Price:       price,
			Description: req.GetString("description", ""),
			Category:    req.GetString("category", "Other"),
			Condition:   req.GetString("condition", "Used - Good"),
			Location:    req.GetString("location", ""),
			SellerName:  req.GetString("seller_name", "Me"),
		}

		item, ok := deps.Manager.AddItem(draft)
		if !ok {
			return mcpError("an identical item is already listed"), nil
		}

		b, err := json.Marshal(item)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal item: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpInboxStatus(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := map[string]any{
			"conversations":  len(deps.Manager.Conversations()),
			"unreadAsBuyer":  deps.Manager.UnreadCount(market.RoleBuyer),
			"unreadAsSeller": deps.Manager.UnreadCount(market.RoleSeller),
			"currentRole":    deps.Manager.CurrentRole(),
		}
		b, err := json.Marshal(status)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal status: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpNegotiationTip(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Assistant == nil {
			return mcpError("assistance not available: no AI client configured"), nil
		}
		itemName, err := req.RequireString("item_name")
		if err != nil {
			return mcpError("item_name is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		tip, err := deps.Assistant.NegotiationTip(ctx, itemName, message)
		if err != nil {
			return mcpError(fmt.Sprintf("negotiation tip failed: %v", err)), nil
		}
		return mcpText(tip), nil
	}
}

func mcpSuggestPrice(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Assistant == nil {
			return mcpError("assistance not available: no AI client configured"), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}

		price, err := deps.Assistant.SuggestPrice(ctx, title, req.GetString("description", ""))
		if err != nil {
			return mcpError(fmt.Sprintf("price suggestion failed: %v", err)), nil
		}
		return mcpText(price), nil
	}
}

func mcpDraftDescription(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Assistant == nil {
			return mcpError("assistance not available: no AI client configured"), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}

		desc, err := deps.Assistant.DraftDescription(ctx, title)
		if err != nil {
			return mcpError(fmt.Sprintf("description draft failed: %v", err)), nil
		}
		return mcpText(desc), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Manager.Profile())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceInbox(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Manager.Conversations())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal conversations: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
