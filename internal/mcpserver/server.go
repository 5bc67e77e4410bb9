// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Foliant workspace tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/evandr/foliant/internal/apperr"
	"github.com/evandr/foliant/internal/content"
	"github.com/evandr/foliant/internal/workspace"
)

// Server wraps the MCP server with Foliant tools. The stdio transport is
// single-user: every tool call runs as the owner the server was created with.
type Server struct {
	mcp     *server.MCPServer
	svc     *workspace.Service
	ownerID string
}

// New creates a new MCP server with all Foliant tools registered.
func New(svc *workspace.Service, ownerID string) *Server {
	s := &Server{svc: svc, ownerID: ownerID}

	s.mcp = server.NewMCPServer(
		"Foliant",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Search the workspace. Matches note titles, headings, "+
			"paragraphs, lists, and code blocks; results are ranked by relevance "+
			"and each hit shows which fragments matched and where they sit in the outline."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.search)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Read one note or folder with its full content document."),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Item id")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("list_recent",
		mcp.WithDescription("List the most recently updated notes."),
	), s.listRecent)

	s.mcp.AddTool(mcp.NewTool("get_structure_summaries",
		mcp.WithDescription("Outlines of recent notes: every indexed fragment with its "+
			"path in the heading hierarchy. Use this to understand what the workspace "+
			"contains before reading full documents."),
	), s.getStructureSummaries)

	s.mcp.AddTool(mcp.NewTool("get_folder_tree",
		mcp.WithDescription("The full folder hierarchy as an indented text tree, "+
			"plus the ids of empty folders."),
	), s.getFolderTree)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Content MUST be a JSON document following "+
			"the content format contract; read it first via the get_content_contract "+
			"tool or the foliant://content-format resource."),
		mcp.WithString("title", mcp.Description("Note title (defaults to Untitled)")),
		mcp.WithString("parent_id", mcp.Description("Optional parent folder id")),
		mcp.WithString("content", mcp.Description("Optional content document as JSON")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("create_folder",
		mcp.WithDescription("Create a folder."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Folder title")),
		mcp.WithString("parent_id", mcp.Description("Optional parent folder id")),
	), s.createFolder)

	s.mcp.AddTool(mcp.NewTool("update_content",
		mcp.WithDescription("Replace a note's content with a new JSON document. "+
			"Pass the note's current version to guard against concurrent edits; "+
			"on a version conflict, re-read the note and retry."),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New content document as JSON")),
		mcp.WithNumber("version", mcp.Description("Expected current version")),
	), s.updateContent)

	s.mcp.AddTool(mcp.NewTool("move_item",
		mcp.WithDescription("Move a note or folder to a new parent folder, or to the "+
			"root when no parent is given."),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Item id")),
		mcp.WithString("parent_id", mcp.Description("Target folder id (empty for root)")),
	), s.moveItem)

	s.mcp.AddTool(mcp.NewTool("remove_item",
		mcp.WithDescription("Delete a note or folder. For folders, recursive=true deletes "+
			"the whole subtree; otherwise children are promoted to the folder's parent."),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Item id")),
		mcp.WithBoolean("recursive", mcp.Description("Cascade delete for folders")),
	), s.removeItem)

	s.mcp.AddTool(mcp.NewTool("get_content_contract",
		mcp.WithDescription("Returns the canonical content document format. "+
			"Call this before creating or updating notes."),
	), s.getContentContract)

	// Resource: content format contract.
	s.mcp.AddResource(
		mcp.NewResource("foliant://content-format", "Content Format Contract",
			mcp.WithResourceDescription("Canonical JSON content document format that all notes use."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// friendlyError turns domain sentinels into text an LLM can act on.
func friendlyError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: the item (or tag) does not exist in this workspace")
	case errors.Is(err, apperr.ErrVersionConflict):
		return mcp.NewToolResultError("version conflict: the note changed since you read it; fetch it again and retry with the new version")
	case errors.Is(err, apperr.ErrInvalidOperation):
		return mcp.NewToolResultError("invalid operation: " + err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func optionalParent(req mcp.CallToolRequest) *string {
	if p, err := req.RequireString("parent_id"); err == nil && p != "" {
		return &p
	}
	return nil
}

func (s *Server) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, s.ownerID, query, 20)
	if err != nil {
		return friendlyError(err), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}

	var sb strings.Builder
	for _, hit := range hits {
		fmt.Fprintf(&sb, "%s (id: %s, relevance: %d)\n", hit.Title, hit.ItemID, hit.Score)
		for _, m := range hit.MatchedNodes {
			fmt.Fprintf(&sb, "  [%s] %s: %s\n", m.NodeType, m.Path, m.Text)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := s.svc.GetDocument(ctx, s.ownerID, itemID)
	if err != nil {
		return friendlyError(err), nil
	}
	out, _ := json.MarshalIndent(item, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListRecent(ctx, s.ownerID, 20)
	if err != nil {
		return friendlyError(err), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("the workspace has no notes yet"), nil
	}
	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "%s (id: %s, updated: %s)\n", item.Title, item.ID, item.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) getStructureSummaries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := s.svc.StructureSummaries(ctx, s.ownerID, 20)
	if err != nil {
		return friendlyError(err), nil
	}
	if len(summaries) == 0 {
		return mcp.NewToolResultText("no indexed notes yet"), nil
	}
	var sb strings.Builder
	for _, sum := range summaries {
		fmt.Fprintf(&sb, "%s (id: %s)\n", sum.Title, sum.ItemID)
		for _, n := range sum.Nodes {
			fmt.Fprintf(&sb, "  [%s] %s\n", n.Kind, n.Path)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) getFolderTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tree, err := s.svc.FolderTree(ctx, s.ownerID)
	if err != nil {
		return friendlyError(err), nil
	}
	if tree.Tree == "" {
		return mcp.NewToolResultText("the workspace is empty"), nil
	}
	var sb strings.Builder
	sb.WriteString(tree.Tree)
	if len(tree.EmptyFolderIDs) > 0 {
		fmt.Fprintf(&sb, "\nempty folder ids: %s\n", strings.Join(tree.EmptyFolderIDs, ", "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := ""
	if v, err := req.RequireString("title"); err == nil {
		title = v
	}

	var doc *content.Document
	if raw, err := req.RequireString("content"); err == nil && raw != "" {
		parsed, parseErr := content.Parse([]byte(raw))
		if parseErr != nil {
			return mcp.NewToolResultError("invalid content document: " + parseErr.Error()), nil
		}
		doc = parsed
	}

	item, err := s.svc.CreateNote(ctx, s.ownerID, title, optionalParent(req), doc)
	if err != nil {
		return friendlyError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created note %q (id: %s)", item.Title, item.ID)), nil
}

func (s *Server) createFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := s.svc.CreateFolder(ctx, s.ownerID, title, optionalParent(req))
	if err != nil {
		return friendlyError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created folder %q (id: %s)", item.Title, item.ID)), nil
}

func (s *Server) updateContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := content.Parse([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError("invalid content document: " + err.Error()), nil
	}

	var expected *int64
	if v, vErr := req.RequireFloat("version"); vErr == nil {
		ev := int64(v)
		expected = &ev
	}

	item, err := s.svc.UpdateContent(ctx, s.ownerID, itemID, doc, expected)
	if err != nil {
		return friendlyError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated %q, version is now %d", item.Title, item.Version)), nil
}

func (s *Server) moveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Move(ctx, s.ownerID, itemID, optionalParent(req)); err != nil {
		return friendlyError(err), nil
	}
	return mcp.NewToolResultText("moved"), nil
}

func (s *Server) removeItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recursive := false
	if v, vErr := req.RequireBool("recursive"); vErr == nil {
		recursive = v
	}
	if err := s.svc.Remove(ctx, s.ownerID, itemID, recursive); err != nil {
		return friendlyError(err), nil
	}
	return mcp.NewToolResultText("removed"), nil
}

func (s *Server) getContentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentFormatContract), nil
}

func (s *Server) readContentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "foliant://content-format",
			MIMEType: "text/markdown",
			Text:     ContentFormatContract,
		},
	}, nil
}
