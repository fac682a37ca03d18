package errors

import "github.com/mark3labs/mcp-go/mcp"

func ErrMCPTool(err error) *mcp.CallToolResult {
	text := err.Error()
	if e, ok := As(err); ok {
		text = e.Code + ": " + e.Message
		if e.Detail != "" {
			text += " (" + e.Detail + ")"
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
		IsError: true,
	}
}
