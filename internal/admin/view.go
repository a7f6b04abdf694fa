package admin

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// View is the resolved content behind a link.
type View struct {
	Name        string
	ContentType string
	Body        []byte
}

// ViewLoader loads the view for a link.
type ViewLoader interface {
	LoadView(ctx context.Context) (*View, error)
}

// ViewLoaderFunc adapts a function to ViewLoader.
type ViewLoaderFunc func(ctx context.Context) (*View, error)

// LoadView implements ViewLoader.
func (f ViewLoaderFunc) LoadView(ctx context.Context) (*View, error) {
	return f(ctx)
}

// ViewResult is delivered by the asynchronous resolve operations.
type ViewResult struct {
	View *View
	Err  error
}

var errNilView = errors.New("view loader returned no view")

// lazyView invokes its loader on first use and memoises a successful
// result. Failed loads are retried on the next call. Concurrent callers share
// one load, and each stops waiting when its own context ends.
type lazyView struct {
	loader ViewLoader
	group  singleflight.Group

	mu   sync.Mutex
	view *View
}

func newLazyView(loader ViewLoader) *lazyView {
	return &lazyView{loader: loader}
}

func (l *lazyView) memo() *View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view
}

func (l *lazyView) resolve(ctx context.Context) (*View, error) {
	if v := l.memo(); v != nil {
		return v, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := l.group.DoChan("view", func() (any, error) {
		if v := l.memo(); v != nil {
			return v, nil
		}
		// The shared load must not fail because its first caller left.
		v, err := l.loader.LoadView(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errNilView
		}
		l.mu.Lock()
		l.view = v
		l.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*View), nil
	}
}

func (l *lazyView) resolveAsync(ctx context.Context) <-chan ViewResult {
	ch := make(chan ViewResult, 1)
	go func() {
		v, err := l.resolve(ctx)
		ch <- ViewResult{View: v, Err: err}
		close(ch)
	}()
	return ch
}

func (l *lazyView) loaded() bool {
	return l.memo() != nil
}
