package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evandr/foliant/internal/apperr"
	"github.com/evandr/foliant/internal/content"
	"github.com/evandr/foliant/internal/models"
	"github.com/evandr/foliant/internal/workspace"
)

const maxBodyBytes = 10 << 20 // 10 MB

// Handler holds API route handlers.
type Handler struct {
	svc *workspace.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *workspace.Service) *Handler {
	return &Handler{svc: svc}
}

// writeError maps domain sentinels to HTTP statuses.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidOperation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, errorBody("version conflict"))
	case errors.Is(err, apperr.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func parseDocument(w http.ResponseWriter, raw json.RawMessage) (*content.Document, bool) {
	if len(raw) == 0 {
		return nil, true
	}
	doc, err := content.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid content document"))
		return nil, false
	}
	return doc, true
}

// CreateNote handles POST /api/items/notes.
//
//	@Summary		Create a note
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	doc, ok := parseDocument(w, req.Content)
	if !ok {
		return
	}
	item, err := h.svc.CreateNote(r.Context(), OwnerFromContext(r.Context()), req.Title, req.ParentID, doc)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// CreateFolder handles POST /api/items/folders.
//
//	@Summary		Create a folder
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFolderRequest	true	"Folder to create"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/folders [post]
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := h.svc.CreateFolder(r.Context(), OwnerFromContext(r.Context()), req.Title, req.ParentID)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// GetItem handles GET /api/items/{id}.
//
//	@Summary		Get an item with its full content
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{object}	ItemResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetDocument(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Rename handles PATCH /api/items/{id}.
//
//	@Summary		Rename an item
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Item id"
//	@Param			body	body		RenameRequest	true	"New title"
//	@Success		200		{object}	ItemResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [patch]
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := h.svc.Rename(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), req.Title)
	if err != nil {
		writeError(w, "rename item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UpdateContent handles PUT /api/items/{id}/content.
//
//	@Summary		Replace a note's content with optimistic concurrency
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Item id"
//	@Param			body	body		UpdateContentRequest	true	"New content and expected version"
//	@Success		200		{object}	ItemResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id}/content [put]
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req UpdateContentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Content) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	doc, ok := parseDocument(w, req.Content)
	if !ok {
		return
	}
	item, err := h.svc.UpdateContent(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), doc, req.Version)
	if err != nil {
		writeError(w, "update content", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Move handles POST /api/items/{id}/move.
//
//	@Summary		Move an item to a new parent
//	@Tags			items
//	@Accept			json
//	@Param			id		path	string		true	"Item id"
//	@Param			body	body	MoveRequest	true	"New parent (null for root)"
//	@Success		204		"Item moved"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id}/move [post]
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.Move(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), req.ParentID); err != nil {
		writeError(w, "move item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /api/items/{id}?recursive=.
//
//	@Summary		Delete an item, cascading or promoting children
//	@Tags			items
//	@Param			id			path	string	true	"Item id"
//	@Param			recursive	query	bool	false	"Cascade delete for folders"
//	@Success		204			"Item deleted"
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	recursive, _ := strconv.ParseBool(r.URL.Query().Get("recursive"))
	if err := h.svc.Remove(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), recursive); err != nil {
		writeError(w, "remove item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignTag handles POST /api/items/{id}/tags.
//
//	@Summary		Assign a tag to an item
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Item id"
//	@Param			body	body		TagRequest	true	"Tag to assign"
//	@Success		200		{object}	ItemResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id}/tags [post]
func (h *Handler) AssignTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := h.svc.AssignTag(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), req.Tag)
	if err != nil {
		writeError(w, "assign tag", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UnassignTag handles DELETE /api/items/{id}/tags/{tag}.
//
//	@Summary		Remove a tag from an item
//	@Tags			tags
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Param			tag	path		string	true	"Tag to remove"
//	@Success		200	{object}	ItemResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id}/tags/{tag} [delete]
func (h *Handler) UnassignTag(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.UnassignTag(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, "unassign tag", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Search handles GET /api/search.
//
//	@Summary		Relevance-ranked search across the owner's notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), OwnerFromContext(r.Context()), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ListRecent handles GET /api/recent.
//
//	@Summary		List the most recently updated notes
//	@Tags			items
//	@Produce		json
//	@Param			limit	query		int	false	"Max results"
//	@Success		200		{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/recent [get]
func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.svc.ListRecent(r.Context(), OwnerFromContext(r.Context()), limit)
	if err != nil {
		writeError(w, "list recent", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ListByTag handles GET /api/items?tag=.
//
//	@Summary		List items carrying a tag
//	@Tags			tags
//	@Produce		json
//	@Param			tag	query		string	true	"Tag to filter by"
//	@Success		200	{object}	map[string]any
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items [get]
func (h *Handler) ListByTag(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'tag' is required"))
		return
	}
	items, err := h.svc.ListByTag(r.Context(), OwnerFromContext(r.Context()), tag)
	if err != nil {
		writeError(w, "list by tag", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Structures handles GET /api/structures.
//
//	@Summary		Structure summaries of recent notes
//	@Tags			index
//	@Produce		json
//	@Param			limit	query		int	false	"Max notes"
//	@Success		200		{object}	StructuresResponse
//	@Security		BearerAuth
//	@Router			/structures [get]
func (h *Handler) Structures(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	summaries, err := h.svc.StructureSummaries(r.Context(), OwnerFromContext(r.Context()), limit)
	if err != nil {
		writeError(w, "structures", err)
		return
	}
	if summaries == nil {
		summaries = []models.StructureSummary{}
	}
	writeJSON(w, http.StatusOK, StructuresResponse{Structures: summaries})
}

// Structure handles GET /api/items/{id}/structure.
//
//	@Summary		Ordered index nodes of one note
//	@Tags			index
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{object}	StructureResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id}/structure [get]
func (h *Handler) Structure(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.svc.Structure(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "structure", err)
		return
	}
	writeJSON(w, http.StatusOK, StructureResponse{Nodes: nodes})
}

// Tree handles GET /api/tree.
//
//	@Summary		Rendered folder tree with empty-folder ids
//	@Tags			items
//	@Produce		json
//	@Success		200	{object}	models.FolderTree
//	@Security		BearerAuth
//	@Router			/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.FolderTree(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		writeError(w, "tree", err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}
