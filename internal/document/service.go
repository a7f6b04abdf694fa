package document

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/quill-cms/quill/internal/logging"
	"github.com/quill-cms/quill/internal/webhook"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no document version matches.
	ErrNotFound = errors.New("document not found")
	// ErrUnknownContentType is returned for uids with no registered type.
	ErrUnknownContentType = errors.New("unknown content type")
	// ErrDraftAndPublishDisabled is returned when publishing a type
	// without draft and publish.
	ErrDraftAndPublishDisabled = errors.New("draft and publish is disabled for this content type")
	// ErrSingleTypeExists is returned when creating a second entry of a
	// single type in the same locale.
	ErrSingleTypeExists = errors.New("single type already has an entry")
	// ErrInvalidParams is returned for malformed status, sort or pagination.
	ErrInvalidParams = errors.New("invalid query parameters")
)

// Service manages documents of every registered content type.
type Service struct {
	store   Store
	emitter webhook.Emitter
	logger  *zap.Logger
	now     func() time.Time

	types map[string]ContentType
	order []string
	// locks serialize the mutations of each content type; they span
	// several store calls.
	locks map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithStore sets the row store. Defaults to a MemoryStore.
func WithStore(s Store) Option {
	return func(svc *Service) { svc.store = s }
}

// WithEmitter sets the webhook emitter notified of lifecycle events.
func WithEmitter(e webhook.Emitter) Option {
	return func(svc *Service) { svc.emitter = e }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(svc *Service) { svc.logger = logging.OrNop(l) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// NewService validates types and returns a service managing them.
func NewService(types []ContentType, opts ...Option) (*Service, error) {
	s := &Service{
		store:  NewMemoryStore(),
		logger: zap.NewNop(),
		now:    time.Now,
		types:  make(map[string]ContentType, len(types)),
		locks:  make(map[string]*sync.Mutex, len(types)),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, ct := range types {
		if err := ct.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.types[ct.UID]; dup {
			return nil, fmt.Errorf("content type %s registered twice", ct.UID)
		}
		s.types[ct.UID] = ct
		s.locks[ct.UID] = new(sync.Mutex)
		s.order = append(s.order, ct.UID)
	}
	return s, nil
}

// ContentTypes returns the registered content types in registration order.
func (s *Service) ContentTypes() []ContentType {
	out := make([]ContentType, 0, len(s.order))
	for _, uid := range s.order {
		out = append(out, s.types[uid])
	}
	return out
}

// Documents returns the collection of documents of the given type.
func (s *Service) Documents(uid string) (*Collection, error) {
	ct, ok := s.types[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContentType, uid)
	}
	return &Collection{svc: s, ct: ct, mu: s.locks[uid]}, nil
}

// Collection runs document operations for one content type. Mutations of
// the same type are serialized across every Collection of a Service.
type Collection struct {
	svc *Service
	ct  ContentType
	mu  *sync.Mutex
}

// ContentType returns the collection's content type.
func (c *Collection) ContentType() ContentType { return c.ct }

// Create stores a new document from p.Data in p.Locale. Types with draft and
// publish get a draft unless p.Status is published.
func (c *Collection) Create(ctx context.Context, p Params) (*Document, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	data, err := validateData(c.ct, p.Data, false)
	if err != nil {
		return nil, err
	}
	locale := c.locale(p)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ct.Kind == SingleType {
		existing, err := c.svc.store.Rows(ctx, c.ct.UID, func(d Document) bool { return d.Locale == locale })
		if err != nil {
			return nil, fmt.Errorf("checking single type %s: %w", c.ct.UID, err)
		}
		if len(existing) > 0 {
			return nil, fmt.Errorf("%w: %s (%s)", ErrSingleTypeExists, c.ct.UID, locale)
		}
	}

	now := c.svc.now().UTC()
	d := Document{
		DocumentID: ksuid.New().String(),
		Locale:     locale,
		CreatedAt:  now,
		UpdatedAt:  now,
		Data:       data,
	}
	if !c.ct.DraftAndPublish {
		d.PublishedAt = &now
	}

	stored, err := c.svc.store.Insert(ctx, c.ct.UID, d)
	if err != nil {
		return nil, fmt.Errorf("creating %s document: %w", c.ct.UID, err)
	}
	if c.ct.DraftAndPublish && p.Status == StatusPublished {
		pub, err := c.publish(ctx, stored.DocumentID, locale)
		if err != nil {
			if rbErr := c.svc.store.Delete(ctx, c.ct.UID, stored.ID); rbErr != nil {
				c.svc.logger.Error("removing draft after failed publish",
					zap.String("uid", c.ct.UID),
					zap.String("documentId", stored.DocumentID),
					zap.Error(rbErr))
			}
			return nil, err
		}
		c.emit(ctx, webhook.EventEntryCreate, stored)
		c.emit(ctx, webhook.EventEntryPublish, *pub)
		return pub, nil
	}
	c.emit(ctx, webhook.EventEntryCreate, stored)
	return &stored, nil
}

// FindOne returns the version of documentID selected by p's locale and
// status.
func (c *Collection) FindOne(ctx context.Context, documentID string, p Params) (*Document, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	match := p.matcher(c.ct)
	rows, err := c.svc.store.Rows(ctx, c.ct.UID, func(d Document) bool {
		return d.DocumentID == documentID && match(d)
	})
	if err != nil {
		return nil, fmt.Errorf("finding %s document %s: %w", c.ct.UID, documentID, err)
	}
	rows = p.apply(rows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, c.ct.UID, documentID)
	}
	return &rows[0], nil
}

// FindFirst returns the first version matching p.
func (c *Collection) FindFirst(ctx context.Context, p Params) (*Document, error) {
	p.Limit = 1
	rows, err := c.FindMany(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, c.ct.UID)
	}
	return &rows[0], nil
}

// FindMany returns every version matching p, sorted and paginated.
func (c *Collection) FindMany(ctx context.Context, p Params) ([]Document, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	rows, err := c.svc.store.Rows(ctx, c.ct.UID, p.matcher(c.ct))
	if err != nil {
		return nil, fmt.Errorf("listing %s documents: %w", c.ct.UID, err)
	}
	return p.apply(rows), nil
}

// Count returns the number of versions matching p, ignoring pagination.
func (c *Collection) Count(ctx context.Context, p Params) (int, error) {
	p.Start, p.Limit, p.Sort = 0, 0, nil
	rows, err := c.FindMany(ctx, p)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Update merges p.Data into the draft of documentID in p.Locale. A localized
// document gains a new locale version when p.Locale has none yet.
func (c *Collection) Update(ctx context.Context, documentID string, p Params) (*Document, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	locale := c.locale(p)

	c.mu.Lock()
	defer c.mu.Unlock()

	versions, err := c.versions(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, c.ct.UID, documentID)
	}

	now := c.svc.now().UTC()
	draft, ok := c.editable(versions, locale)
	if !ok {
		data, err := validateData(c.ct, p.Data, false)
		if err != nil {
			return nil, err
		}
		d := Document{DocumentID: documentID, Locale: locale, CreatedAt: now, UpdatedAt: now, Data: data}
		if !c.ct.DraftAndPublish {
			d.PublishedAt = &now
		}
		stored, err := c.svc.store.Insert(ctx, c.ct.UID, d)
		if err != nil {
			return nil, fmt.Errorf("creating %s locale %s: %w", documentID, locale, err)
		}
		c.emit(ctx, webhook.EventEntryUpdate, stored)
		return c.publishAfterUpdate(ctx, stored, p)
	}

	merged := maps.Clone(draft.Data)
	if merged == nil {
		merged = make(map[string]any)
	}
	maps.Copy(merged, p.Data)
	data, err := validateData(c.ct, merged, false)
	if err != nil {
		return nil, err
	}
	draft.Data = data
	draft.UpdatedAt = now
	if err := c.svc.store.Replace(ctx, c.ct.UID, draft); err != nil {
		return nil, fmt.Errorf("updating %s document %s: %w", c.ct.UID, documentID, err)
	}
	c.emit(ctx, webhook.EventEntryUpdate, draft)
	return c.publishAfterUpdate(ctx, draft, p)
}

func (c *Collection) publishAfterUpdate(ctx context.Context, d Document, p Params) (*Document, error) {
	if c.ct.DraftAndPublish && p.Status == StatusPublished {
		pub, err := c.publish(ctx, d.DocumentID, d.Locale)
		if err != nil {
			return nil, err
		}
		c.emit(ctx, webhook.EventEntryPublish, *pub)
	}
	return &d, nil
}

// DeleteResult reports the versions removed by Delete.
type DeleteResult struct {
	DocumentID string
	Entries    []Document
}

// Delete removes every version of documentID in p.Locale, or in all locales
// when p.Locale is AllLocales.
func (c *Collection) Delete(ctx context.Context, documentID string, p Params) (*DeleteResult, error) {
	locale := selectLocale(c.ct, p)

	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.svc.store.Rows(ctx, c.ct.UID, func(d Document) bool {
		return d.DocumentID == documentID && (locale == AllLocales || d.Locale == locale)
	})
	if err != nil {
		return nil, fmt.Errorf("finding %s document %s: %w", c.ct.UID, documentID, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, c.ct.UID, documentID)
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	if err := c.svc.store.Delete(ctx, c.ct.UID, ids...); err != nil {
		return nil, fmt.Errorf("deleting %s document %s: %w", c.ct.UID, documentID, err)
	}
	for _, r := range rows {
		if !c.ct.DraftAndPublish || !r.Published() {
			c.emit(ctx, webhook.EventEntryDelete, r)
		}
	}
	return &DeleteResult{DocumentID: documentID, Entries: rows}, nil
}

// Publish copies the draft of documentID in p.Locale to a published
// version, replacing any previous one.
func (c *Collection) Publish(ctx context.Context, documentID string, p Params) (*Document, error) {
	if !c.ct.DraftAndPublish {
		return nil, fmt.Errorf("%w: %s", ErrDraftAndPublishDisabled, c.ct.UID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pub, err := c.publish(ctx, documentID, c.locale(p))
	if err != nil {
		return nil, err
	}
	c.emit(ctx, webhook.EventEntryPublish, *pub)
	return pub, nil
}

// publish does the work of Publish without locking or emitting.
func (c *Collection) publish(ctx context.Context, documentID, locale string) (*Document, error) {
	versions, err := c.versions(ctx, documentID)
	if err != nil {
		return nil, err
	}
	draft, ok := c.editable(versions, locale)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s (%s draft)", ErrNotFound, c.ct.UID, documentID, locale)
	}

	var stale []int64
	for _, v := range versions {
		if v.Locale == locale && v.Published() {
			stale = append(stale, v.ID)
		}
	}
	if len(stale) > 0 {
		if err := c.svc.store.Delete(ctx, c.ct.UID, stale...); err != nil {
			return nil, fmt.Errorf("replacing published %s: %w", documentID, err)
		}
	}

	now := c.svc.now().UTC()
	pub := draft.clone()
	pub.ID = 0
	pub.PublishedAt = &now
	pub.UpdatedAt = now
	stored, err := c.svc.store.Insert(ctx, c.ct.UID, pub)
	if err != nil {
		return nil, fmt.Errorf("publishing %s document %s: %w", c.ct.UID, documentID, err)
	}
	return &stored, nil
}

// Unpublish removes the published version of documentID in p.Locale and
// returns the remaining draft.
func (c *Collection) Unpublish(ctx context.Context, documentID string, p Params) (*Document, error) {
	if !c.ct.DraftAndPublish {
		return nil, fmt.Errorf("%w: %s", ErrDraftAndPublishDisabled, c.ct.UID)
	}
	locale := c.locale(p)

	c.mu.Lock()
	defer c.mu.Unlock()

	versions, err := c.versions(ctx, documentID)
	if err != nil {
		return nil, err
	}
	var published []int64
	for _, v := range versions {
		if v.Locale == locale && v.Published() {
			published = append(published, v.ID)
		}
	}
	if len(published) == 0 {
		return nil, fmt.Errorf("%w: %s %s is not published in %s", ErrNotFound, c.ct.UID, documentID, locale)
	}
	if err := c.svc.store.Delete(ctx, c.ct.UID, published...); err != nil {
		return nil, fmt.Errorf("unpublishing %s document %s: %w", c.ct.UID, documentID, err)
	}

	draft, _ := c.editable(versions, locale)
	c.emit(ctx, webhook.EventEntryUnpublish, draft)
	return &draft, nil
}

func (c *Collection) versions(ctx context.Context, documentID string) ([]Document, error) {
	rows, err := c.svc.store.Rows(ctx, c.ct.UID, func(d Document) bool { return d.DocumentID == documentID })
	if err != nil {
		return nil, fmt.Errorf("loading %s document %s: %w", c.ct.UID, documentID, err)
	}
	return rows, nil
}

// editable returns the version edits apply to: the draft for types with
// draft and publish, the only version otherwise.
func (c *Collection) editable(versions []Document, locale string) (Document, bool) {
	for _, v := range versions {
		if v.Locale != locale {
			continue
		}
		if !c.ct.DraftAndPublish || !v.Published() {
			return v, true
		}
	}
	return Document{}, false
}

func (c *Collection) locale(p Params) string {
	if !c.ct.Localized || p.Locale == "" || p.Locale == AllLocales {
		return DefaultLocale
	}
	return p.Locale
}

func (c *Collection) emit(ctx context.Context, event string, d Document) {
	if c.svc.emitter == nil {
		return
	}
	_, err := c.svc.emitter.Emit(ctx, event, webhook.Info{
		Model: c.ct.ModelName(),
		UID:   c.ct.UID,
		Entry: d.Fields(),
	})
	if err != nil {
		c.svc.logger.Warn("emitting webhook event failed",
			zap.String("event", event),
			zap.String("uid", c.ct.UID),
			zap.String("documentId", d.DocumentID),
			zap.Error(err))
	}
}
