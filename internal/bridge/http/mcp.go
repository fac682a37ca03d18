package http

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/sjzar/contactsbridge/internal/bridge/channel"
	"github.com/sjzar/contactsbridge/internal/bridge/conf"
	"github.com/sjzar/contactsbridge/internal/errors"
	"github.com/sjzar/contactsbridge/pkg/version"
)

func (s *Service) initMCPServer() {
	s.mcpServer = server.NewMCPServer(conf.AppName, version.Version)
	s.mcpServer.AddTool(QueryContactTool, s.handleMCPQueryContact)
	s.mcpServer.AddTool(GetContactTool, s.handleMCPGetContact)
	s.mcpServer.AddTool(ListContactsTool, s.handleMCPListContacts)
	s.mcpSSEServer = server.NewSSEServer(s.mcpServer)
	s.mcpStreamableServer = server.NewStreamableHTTPServer(s.mcpServer)
}

var QueryContactTool = mcp.NewTool(
	"query_contact",
	mcp.WithDescription(`Search the address book by display name. Matching is a case-insensitive substring match; an empty keyword returns every contact. Each result line contains the contact's name, id, phone numbers and email addresses.`),
	mcp.WithString("keyword", mcp.Description("Part of the contact's display name.")),
)

var GetContactTool = mcp.NewTool(
	"get_contact",
	mcp.WithDescription(`Get every stored property of one contact by id, as JSON. Use query_contact first to find the id.`),
	mcp.WithString("id", mcp.Description("Contact id as returned by query_contact."), mcp.Required()),
)

var ListContactsTool = mcp.NewTool(
	"list_contacts",
	mcp.WithDescription(`List all contacts sorted by display name. Phone numbers and email addresses are included only when with_properties is true.`),
	mcp.WithBoolean("with_properties", mcp.Description("Include phone numbers and email addresses.")),
)

type QueryContactRequest struct {
	Keyword string `json:"keyword"`
}

func (s *Service) handleMCPQueryContact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req QueryContactRequest
	if err := request.BindArguments(&req); err != nil {
		log.Error().Interface("request", request.GetRawArguments()).Err(err).Msg("Failed to bind arguments")
		return errors.ErrMCPTool(err), nil
	}

	result, err := s.ch.Invoke(ctx, channel.MethodSearchContacts, map[string]interface{}{
		"query":      req.Keyword,
		"properties": []string{"phones", "emails"},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to search contacts")
		return errors.ErrMCPTool(err), nil
	}
	return textResult(plainContacts(result)), nil
}

type GetContactRequest struct {
	ID string `json:"id"`
}

func (s *Service) handleMCPGetContact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req GetContactRequest
	if err := request.BindArguments(&req); err != nil {
		log.Error().Interface("request", request.GetRawArguments()).Err(err).Msg("Failed to bind arguments")
		return errors.ErrMCPTool(err), nil
	}

	result, err := s.ch.Invoke(ctx, channel.MethodGetContact, map[string]interface{}{"id": req.ID})
	if err != nil {
		log.Error().Err(err).Msg("Failed to get contact")
		return errors.ErrMCPTool(err), nil
	}
	if result == nil {
		return errors.ErrMCPTool(errors.ContactNotFound(req.ID)), nil
	}
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.ErrMCPTool(err), nil
	}
	return textResult(string(b)), nil
}

type ListContactsRequest struct {
	WithProperties bool `json:"with_properties"`
}

func (s *Service) handleMCPListContacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req ListContactsRequest
	if err := request.BindArguments(&req); err != nil {
		log.Error().Interface("request", request.GetRawArguments()).Err(err).Msg("Failed to bind arguments")
		return errors.ErrMCPTool(err), nil
	}

	args := map[string]interface{}{}
	if req.WithProperties {
		args["properties"] = []string{"phones", "emails"}
	}
	result, err := s.ch.Invoke(ctx, channel.MethodGetAllContacts, args)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list contacts")
		return errors.ErrMCPTool(err), nil
	}
	return textResult(plainContacts(result)), nil
}

func plainContacts(result interface{}) string {
	items, _ := result.([]map[string]interface{})
	buf := &bytes.Buffer{}
	if len(items) == 0 {
		buf.WriteString("No contacts found")
	}
	for _, contact := range decodeContacts(items) {
		buf.WriteString(contact.PlainText())
		buf.WriteString("\n")
	}
	return buf.String()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}
