package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/evandr/foliant/internal/blob"
	"github.com/evandr/foliant/internal/workspace"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled selects between single-user mode (every request attributed to
// defaultOwner) and token mode (Bearer token resolved through tokenOwners).
func NewRouter(svc *workspace.Service, blobs *blob.Store, authEnabled bool, defaultOwner string, tokenOwners map[string]string) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(blobs)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, defaultOwner, tokenOwners))

	// Items.
	r.Get("/items", h.ListByTag)
	r.Post("/items/notes", h.CreateNote)
	r.Post("/items/folders", h.CreateFolder)
	r.Get("/items/{id}", h.GetItem)
	r.Patch("/items/{id}", h.Rename)
	r.Delete("/items/{id}", h.Remove)
	r.Put("/items/{id}/content", h.UpdateContent)
	r.Post("/items/{id}/move", h.Move)

	// Tags.
	r.Post("/items/{id}/tags", h.AssignTag)
	r.Delete("/items/{id}/tags/{tag}", h.UnassignTag)

	// Index and search.
	r.Get("/search", h.Search)
	r.Get("/recent", h.ListRecent)
	r.Get("/structures", h.Structures)
	r.Get("/items/{id}/structure", h.Structure)
	r.Get("/tree", h.Tree)

	// Attachments.
	r.Post("/attachments", ah.Upload)
	r.Get("/attachments/{id}", ah.ServeFile)

	return r
}
