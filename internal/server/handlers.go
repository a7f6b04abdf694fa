package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/quill-cms/quill/internal/document"
	"github.com/quill-cms/quill/internal/webhook"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type apiError struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any, meta map[string]any) {
	body := map[string]any{"data": data}
	if meta != nil {
		body["meta"] = meta
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": apiError{
		Status: http.StatusBadRequest, Name: "ValidationError", Message: msg,
	}})
}

// writeErr maps service errors to HTTP statuses.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	e := apiError{Status: http.StatusInternalServerError, Name: "ApplicationError", Message: err.Error()}

	var ve *document.ValidationError
	switch {
	case errors.As(err, &ve):
		e.Status, e.Name, e.Details = http.StatusBadRequest, "ValidationError", map[string]any{"errors": ve.Errors}
	case errors.Is(err, webhook.ErrInvalid), errors.Is(err, document.ErrInvalidParams):
		e.Status, e.Name = http.StatusBadRequest, "ValidationError"
	case errors.Is(err, document.ErrNotFound), errors.Is(err, document.ErrUnknownContentType), errors.Is(err, webhook.ErrNotFound):
		e.Status, e.Name = http.StatusNotFound, "NotFoundError"
	case errors.Is(err, document.ErrSingleTypeExists), errors.Is(err, document.ErrDraftAndPublishDisabled), errors.Is(err, webhook.ErrDuplicateID):
		e.Status, e.Name = http.StatusConflict, "ConflictError"
	default:
		s.logger.Error("request failed", zap.Error(err))
		e.Message = "internal server error"
	}
	writeJSON(w, e.Status, map[string]any{"error": e})
}

// queryParams reads locale, status, sort, filters[field] and pagination from
// the query string.
func queryParams(r *http.Request) (document.Params, error) {
	q := r.URL.Query()
	p := document.Params{
		Locale: q.Get("locale"),
		Status: document.Status(q.Get("status")),
	}
	switch p.Status {
	case "", document.StatusDraft, document.StatusPublished:
	default:
		return p, fmt.Errorf("status must be draft or published")
	}

	for _, v := range q["sort"] {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				p.Sort = append(p.Sort, f)
			}
		}
	}

	for key, vals := range q {
		field, ok := strings.CutPrefix(key, "filters[")
		if !ok || !strings.HasSuffix(field, "]") || len(vals) == 0 {
			continue
		}
		if p.Filters == nil {
			p.Filters = make(map[string]any)
		}
		p.Filters[strings.TrimSuffix(field, "]")] = vals[0]
	}

	var err error
	if p.Start, err = nonNegative(q.Get("start")); err != nil {
		return p, fmt.Errorf("start %w", err)
	}
	if p.Limit, err = nonNegative(q.Get("limit")); err != nil {
		return p, fmt.Errorf("limit %w", err)
	}
	return p, nil
}

func nonNegative(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return n, nil
}

// readData decodes a {"data": {...}} body into p.Data.
func readData(w http.ResponseWriter, r *http.Request, p *document.Params) error {
	var body struct {
		Data map[string]any `json:"data"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	if body.Data == nil {
		return errors.New(`missing "data" object in request body`)
	}
	p.Data = body.Data
	return nil
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (*document.Collection, document.Params, bool) {
	c, err := s.documents.Documents(r.PathValue("uid"))
	if err != nil {
		s.writeErr(w, err)
		return nil, document.Params{}, false
	}
	p, err := queryParams(r)
	if err != nil {
		badRequest(w, err.Error())
		return nil, p, false
	}
	return c, p, true
}

func (s *Server) handleListContentTypes(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, s.documents.ContentTypes(), nil)
}

func (s *Server) handleFindMany(w http.ResponseWriter, r *http.Request) {
	c, p, ok := s.collection(w, r)
	if !ok {
		return
	}
	docs, err := c.FindMany(r.Context(), p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if docs == nil {
		docs = []document.Document{}
	}
	counted := p
	counted.Start, counted.Limit = 0, 0
	total, err := c.Count(r.Context(), counted)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, docs, map[string]any{
		"pagination": map[string]int{"start": p.Start, "limit": p.Limit, "total": total},
	})
}

func (s *Server) handleFindOne(w http.ResponseWriter, r *http.Request) {
	c, p, ok := s.collection(w, r)
	if !ok {
		return
	}
	d, err := c.FindOne(r.Context(), r.PathValue("documentId"), p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, d, nil)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	c, p, ok := s.collection(w, r)
	if !ok {
		return
	}
	if err := readData(w, r, &p); err != nil {
		badRequest(w, err.Error())
		return
	}
	d, err := c.Create(r.Context(), p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeData(w, http.StatusCreated, d, nil)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	c, p, ok := s.collection(w, r)
	if !ok {
		return
	}
	if err := readData(w, r, &p); err != nil {
		badRequest(w, err.Error())
		return
	}
	d, err := c.Update(r.Context(), r.PathValue("documentId"), p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, d, nil)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	c, p, ok := s.collection(w, r)
	if !ok {
		return
	}
	res, err := c.Delete(r.Context(), r.PathValue("documentId"), p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"documentId": res.DocumentID,
		"entries":    res.Entries,
	}, nil)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	c, p, ok := s.collection(w, r)
	if !ok {
		return
	}
	d, err := c.Publish(r.Context(), r.PathValue("documentId"), p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, d, nil)
}

func (s *Server) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	c, p, ok := s.collection(w, r)
	if !ok {
		return
	}
	d, err := c.Unpublish(r.Context(), r.PathValue("documentId"), p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, d, nil)
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, s.webhooks.List(), nil)
}

func (s *Server) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var hook webhook.Webhook
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&hook); err != nil {
		badRequest(w, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	created, err := s.webhooks.Register(hook)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeData(w, http.StatusCreated, created, nil)
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.webhooks.Remove(r.PathValue("id")); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
