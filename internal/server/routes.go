package server

import (
	"net/http"

	"github.com/quill-cms/quill/internal/admin"
)

// routes are mounted under the admin base path next to the link routes.
func (s *Server) routes() []admin.Route {
	return []admin.Route{
		// Content API
		{Pattern: "GET /api/content-types", Handler: http.HandlerFunc(s.handleListContentTypes)},
		{Pattern: "GET /api/content/{uid}", Handler: http.HandlerFunc(s.handleFindMany)},
		{Pattern: "POST /api/content/{uid}", Handler: http.HandlerFunc(s.handleCreate)},
		{Pattern: "GET /api/content/{uid}/{documentId}", Handler: http.HandlerFunc(s.handleFindOne)},
		{Pattern: "PUT /api/content/{uid}/{documentId}", Handler: http.HandlerFunc(s.handleUpdate)},
		{Pattern: "DELETE /api/content/{uid}/{documentId}", Handler: http.HandlerFunc(s.handleDelete)},
		{Pattern: "POST /api/content/{uid}/{documentId}/actions/publish", Handler: http.HandlerFunc(s.handlePublish)},
		{Pattern: "POST /api/content/{uid}/{documentId}/actions/unpublish", Handler: http.HandlerFunc(s.handleUnpublish)},

		// Webhooks
		{Pattern: "GET /api/webhooks", Handler: http.HandlerFunc(s.handleListWebhooks)},
		{Pattern: "POST /api/webhooks", Handler: http.HandlerFunc(s.handleCreateWebhook)},
		{Pattern: "DELETE /api/webhooks/{id}", Handler: http.HandlerFunc(s.handleDeleteWebhook)},

		{Pattern: "GET /health", Handler: http.HandlerFunc(s.handleHealth)},
	}
}
