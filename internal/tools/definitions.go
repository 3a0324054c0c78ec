// Package tools defines the tools offered to the model and runs the calls it
// makes against the catalog and the currency converter.
package tools

import "github.com/mark3labs/mcp-go/mcp"

// Tool names as the model sees them.
const (
	NameSearchProducts    = "searchProducts"
	NameConvertCurrencies = "convertCurrencies"
)

// Definitions returns the tool schemas offered to the model, in a stable order.
func Definitions() []mcp.Tool {
	return []mcp.Tool{SearchProductsTool(), ConvertCurrenciesTool()}
}

// SearchProductsTool describes the catalog search tool.
func SearchProductsTool() mcp.Tool {
	return mcp.NewTool(NameSearchProducts,
		mcp.WithDescription("Search for products by query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search term"),
		),
	)
}

// ConvertCurrenciesTool describes the currency conversion tool.
func ConvertCurrenciesTool() mcp.Tool {
	return mcp.NewTool(NameConvertCurrencies,
		mcp.WithDescription("Converts currencies"),
		mcp.WithNumber("amount", mcp.Required()),
		mcp.WithString("from", mcp.Required()),
		mcp.WithString("to", mcp.Required()),
	)
}
