package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/quill-cms/quill/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// ErrNotSealed is returned by Handler when the registry is still open.
var ErrNotSealed = errors.New("registry must be initialized before serving")

// Route is an extra handler mounted under the router's base path. Pattern
// follows net/http ServeMux syntax without the base, e.g. "GET /marketplace".
// A pattern without a method is served for GET.
type Route struct {
	Pattern string
	Handler http.Handler
}

// RouterOptions configures the composed handler.
type RouterOptions struct {
	// Basename prefixes every route, e.g. "/admin".
	Basename string
	// Translator localises labels in the JSON endpoints. Defaults to an
	// English-only translator.
	Translator *Translator
	Logger     *zap.Logger
}

// Router composes the registry's links and custom routes into a handler.
type Router struct {
	registry *Registry
	routes   []Route
}

// linkHandler serves the registry for one Handler call.
type linkHandler struct {
	registry   *Registry
	translator *Translator
	logger     *zap.Logger
}

// NewRouter returns a router over reg with the given initial routes.
func NewRouter(reg *Registry, routes ...Route) *Router {
	return &Router{
		registry: reg,
		routes:   append([]Route(nil), routes...),
	}
}

// AddRoute appends routes.
func (r *Router) AddRoute(routes ...Route) {
	r.routes = append(r.routes, routes...)
}

// AddRouteFunc replaces the route list with fn's result.
func (r *Router) AddRouteFunc(fn func([]Route) []Route) {
	r.routes = fn(append([]Route(nil), r.routes...))
}

// Routes returns the custom routes.
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Handler builds the http.Handler. Custom routes whose patterns conflict
// with each other or with the built-in routes are reported as errors.
func (r *Router) Handler(opts RouterOptions) (h http.Handler, err error) {
	if r.registry == nil || !r.registry.Sealed() {
		return nil, ErrNotSealed
	}

	lh := &linkHandler{
		registry:   r.registry,
		translator: opts.Translator,
		logger:     logging.OrNop(opts.Logger),
	}
	if lh.translator == nil {
		lh.translator = NewTranslator(language.English)
	}

	base := "/" + strings.Trim(opts.Basename, "/")
	if base == "/" {
		base = ""
	}

	mux := http.NewServeMux()
	defer func() {
		if rec := recover(); rec != nil {
			h, err = nil, fmt.Errorf("registering routes: %v", rec)
		}
	}()

	mux.HandleFunc("GET "+base+"/api/menu", lh.serveMenu)
	mux.HandleFunc("GET "+base+"/api/settings", lh.serveSettings)
	for _, rt := range r.routes {
		method, path, ok := strings.Cut(rt.Pattern, " ")
		if !ok {
			method, path = http.MethodGet, rt.Pattern
		}
		mux.Handle(method+" "+base+"/"+strings.TrimLeft(path, "/"), rt.Handler)
	}
	mux.HandleFunc("GET "+base+"/settings/{path...}", lh.serveSettingsView)
	mux.HandleFunc("GET "+base+"/{path...}", lh.serveMenuView)
	return mux, nil
}

type menuEntry struct {
	To                 string       `json:"to"`
	Icon               string       `json:"icon,omitempty"`
	Label              string       `json:"label"`
	IntlLabel          IntlLabel    `json:"intlLabel"`
	Permissions        []Permission `json:"permissions"`
	NotificationsCount int          `json:"notificationsCount,omitempty"`
	Exact              bool         `json:"exact,omitempty"`
	LockIcon           bool         `json:"lockIcon,omitempty"`
}

type settingsLinkEntry struct {
	ID          string       `json:"id"`
	To          string       `json:"to"`
	Label       string       `json:"label"`
	IntlLabel   IntlLabel    `json:"intlLabel"`
	Permissions []Permission `json:"permissions"`
	Exact       bool         `json:"exact,omitempty"`
	LockIcon    bool         `json:"lockIcon,omitempty"`
}

type settingsSectionEntry struct {
	ID        string              `json:"id"`
	Label     string              `json:"label"`
	IntlLabel IntlLabel           `json:"intlLabel"`
	Links     []settingsLinkEntry `json:"links"`
}

func (r *linkHandler) serveMenu(w http.ResponseWriter, req *http.Request) {
	tag := r.locale(req)
	menu := r.registry.Menu()
	out := make([]menuEntry, 0, len(menu))
	for _, l := range menu {
		out = append(out, menuEntry{
			To:                 "/" + l.To,
			Icon:               l.Icon,
			Label:              r.translator.Label(tag, l.IntlLabel),
			IntlLabel:          l.IntlLabel,
			Permissions:        l.Permissions,
			NotificationsCount: l.NotificationsCount,
			Exact:              l.Exact,
			LockIcon:           l.LockIcon,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (r *linkHandler) serveSettings(w http.ResponseWriter, req *http.Request) {
	tag := r.locale(req)
	sections := r.registry.Sections()
	out := make([]settingsSectionEntry, 0, len(sections))
	for _, s := range sections {
		entry := settingsSectionEntry{
			ID:        s.ID,
			Label:     r.translator.Label(tag, s.IntlLabel),
			IntlLabel: s.IntlLabel,
			Links:     make([]settingsLinkEntry, 0, len(s.Links)),
		}
		for _, l := range s.Links {
			entry.Links = append(entry.Links, settingsLinkEntry{
				ID:          l.ID,
				To:          "/" + settingsRoot + "/" + l.To,
				Label:       r.translator.Label(tag, l.IntlLabel),
				IntlLabel:   l.IntlLabel,
				Permissions: l.Permissions,
				Exact:       l.Exact,
				LockIcon:    l.LockIcon,
			})
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (r *linkHandler) serveMenuView(w http.ResponseWriter, req *http.Request) {
	link, ok := r.registry.MatchMenuLink(req.PathValue("path"))
	if !ok {
		writeError(w, http.StatusNotFound, "no menu link serves this path")
		return
	}
	r.writeView(w, req, link.IntlLabel, link.ResolveView)
}

func (r *linkHandler) serveSettingsView(w http.ResponseWriter, req *http.Request) {
	link, ok := r.registry.MatchSettingsLink(req.PathValue("path"))
	if !ok {
		writeError(w, http.StatusNotFound, "no settings link serves this path")
		return
	}
	r.writeView(w, req, link.IntlLabel, link.ResolveView)
}

func (r *linkHandler) writeView(w http.ResponseWriter, req *http.Request, label IntlLabel, resolve func(context.Context) (*View, error)) {
	view, err := resolve(req.Context())
	if err != nil {
		r.logger.Error("resolving view failed",
			zap.String("path", req.URL.Path),
			zap.String("label", label.DefaultMessage),
			zap.Error(err))
		writeError(w, http.StatusBadGateway, fmt.Sprintf("loading view for %s: %v", label.DefaultMessage, err))
		return
	}

	ct := view.ContentType
	if ct == "" {
		ct = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(view.Body)
}

func (r *linkHandler) locale(req *http.Request) language.Tag {
	if l := req.URL.Query().Get("locale"); l != "" {
		return r.translator.ParseLocale(l)
	}
	if tags, _, err := language.ParseAcceptLanguage(req.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		return tags[0]
	}
	return r.translator.Fallback()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"status": status, "message": msg},
	})
}
