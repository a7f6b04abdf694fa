package plugin

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/quill-cms/quill/internal/admin"
)

// viewLoader returns a loader reading rel from the plugin directory when
// the link is first navigated to.
func (p *Plugin) viewLoader(rel string) admin.ViewLoader {
	path := filepath.Join(p.Dir, rel)
	return admin.ViewLoaderFunc(func(ctx context.Context) (*admin.View, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading view %s: %w", rel, err)
		}
		ct := mime.TypeByExtension(filepath.Ext(rel))
		if ct == "" {
			ct = "text/html; charset=utf-8"
		}
		return &admin.View{Name: rel, ContentType: ct, Body: body}, nil
	})
}
