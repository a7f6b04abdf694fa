package document

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quill-cms/quill/internal/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const articleUID = "api::article.article"

var articleType = ContentType{
	UID:             articleUID,
	Kind:            CollectionType,
	DisplayName:     "Article",
	DraftAndPublish: true,
	Localized:       true,
	Attributes: map[string]Attribute{
		"title":    {Type: TypeString, Required: true},
		"body":     {Type: TypeRichText},
		"views":    {Type: TypeInteger, Default: 0},
		"category": {Type: TypeEnumeration, Enum: []string{"news", "blog"}},
	},
}

var authorType = ContentType{
	UID:         "api::author.author",
	Kind:        CollectionType,
	DisplayName: "Author",
	Attributes: map[string]Attribute{
		"name":  {Type: TypeString, Required: true},
		"email": {Type: TypeEmail},
	},
}

type recordedEvent struct {
	Event string
	Info  webhook.Info
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakeEmitter) Emit(_ context.Context, event string, info webhook.Info) ([]webhook.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Event: event, Info: info})
	return nil, f.err
}

func (f *fakeEmitter) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Event)
	}
	return out
}

type fixture struct {
	svc      *Service
	store    *MemoryStore
	emitter  *fakeEmitter
	articles *Collection
	authors  *Collection
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{store: NewMemoryStore(), emitter: &fakeEmitter{}}
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	base := []Option{
		WithStore(f.store),
		WithEmitter(f.emitter),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	}
	svc, err := NewService([]ContentType{articleType, authorType}, append(base, opts...)...)
	require.NoError(t, err)
	f.svc = svc
	f.articles, err = svc.Documents(articleUID)
	require.NoError(t, err)
	f.authors, err = svc.Documents(authorType.UID)
	require.NoError(t, err)
	return f
}

func TestCreateDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	article, err := f.articles.Create(ctx, Params{Data: map[string]any{"title": "Article"}})
	require.NoError(t, err)

	assert.Equal(t, "Article", article.Data["title"])
	assert.Equal(t, DefaultLocale, article.Locale)
	assert.Nil(t, article.PublishedAt)
	assert.NotEmpty(t, article.DocumentID)
	assert.Equal(t, int64(0), article.Data["views"])

	rows, err := f.store.Rows(ctx, articleUID, func(d Document) bool { return d.DocumentID == article.DocumentID })
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.Equal(t, []string{webhook.EventEntryCreate}, f.emitter.names())
	info := f.emitter.events[0].Info
	assert.Equal(t, "article", info.Model)
	assert.Equal(t, articleUID, info.UID)
	entry := info.Entry.(map[string]any)
	assert.Equal(t, article.DocumentID, entry["documentId"])
	assert.Nil(t, entry["publishedAt"])
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.articles.Create(ctx, Params{Data: map[string]any{"views": "many", "extra": 1, "category": "gossip"}})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	paths := []string{}
	for _, fe := range ve.Errors {
		paths = append(paths, fe.Path)
	}
	assert.ElementsMatch(t, []string{"category", "extra", "views", "title"}, paths)
	assert.Empty(t, f.emitter.names())

	_, err = f.authors.Create(ctx, Params{Data: map[string]any{"name": "Ann", "email": "not-an-email"}})
	require.ErrorAs(t, err, &ve)
}

func TestCreateWithoutDraftAndPublish(t *testing.T) {
	f := newFixture(t)

	author, err := f.authors.Create(context.Background(), Params{Data: map[string]any{"name": "Ann"}, Locale: "fr"})
	require.NoError(t, err)

	assert.NotNil(t, author.PublishedAt)
	assert.Equal(t, DefaultLocale, author.Locale)

	_, err = f.authors.Publish(context.Background(), author.DocumentID, Params{})
	assert.ErrorIs(t, err, ErrDraftAndPublishDisabled)
}

func TestPublishLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	article, err := f.articles.Create(ctx, Params{Data: map[string]any{"title": "Draft"}})
	require.NoError(t, err)

	_, err = f.articles.FindOne(ctx, article.DocumentID, Params{Status: StatusPublished})
	require.ErrorIs(t, err, ErrNotFound)

	pub, err := f.articles.Publish(ctx, article.DocumentID, Params{})
	require.NoError(t, err)
	require.NotNil(t, pub.PublishedAt)
	assert.Equal(t, article.DocumentID, pub.DocumentID)

	// Re-publishing replaces the previous published version.
	_, err = f.articles.Update(ctx, article.DocumentID, Params{Data: map[string]any{"title": "Edited"}})
	require.NoError(t, err)
	_, err = f.articles.Publish(ctx, article.DocumentID, Params{})
	require.NoError(t, err)

	n, err := f.articles.Count(ctx, Params{Status: StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.articles.FindOne(ctx, article.DocumentID, Params{Status: StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.Data["title"])

	draft, err := f.articles.Unpublish(ctx, article.DocumentID, Params{})
	require.NoError(t, err)
	assert.Nil(t, draft.PublishedAt)

	_, err = f.articles.Unpublish(ctx, article.DocumentID, Params{})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{
		webhook.EventEntryCreate,
		webhook.EventEntryPublish,
		webhook.EventEntryUpdate,
		webhook.EventEntryPublish,
		webhook.EventEntryUnpublish,
	}, f.emitter.names())
}

func TestCreatePublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	live, err := f.articles.Create(ctx, Params{Data: map[string]any{"title": "Live"}, Status: StatusPublished})
	require.NoError(t, err)
	assert.True(t, live.Published(), "the published version is returned")
	assert.Equal(t, []string{webhook.EventEntryCreate, webhook.EventEntryPublish}, f.emitter.names())

	drafts, err := f.articles.Count(ctx, Params{})
	require.NoError(t, err)
	published, err := f.articles.Count(ctx, Params{Status: StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, 1, drafts)
	assert.Equal(t, 1, published)
}

func TestUpdateLocales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	article, err := f.articles.Create(ctx, Params{Data: map[string]any{"title": "Hello"}})
	require.NoError(t, err)

	fr, err := f.articles.Update(ctx, article.DocumentID, Params{Locale: "fr", Data: map[string]any{"title": "Bonjour"}})
	require.NoError(t, err)
	assert.Equal(t, "fr", fr.Locale)
	assert.Equal(t, article.DocumentID, fr.DocumentID)

	all, err := f.articles.FindMany(ctx, Params{Locale: AllLocales, Sort: []string{"locale"}})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "en", all[0].Locale)
	assert.Equal(t, "fr", all[1].Locale)

	_, err = f.articles.Update(ctx, "missing", Params{Data: map[string]any{"title": "x"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindManyQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, title := range []string{"c", "a", "b", "d"} {
		category := "news"
		if i%2 == 1 {
			category = "blog"
		}
		_, err := f.articles.Create(ctx, Params{Data: map[string]any{"title": title, "views": i * 10, "category": category}})
		require.NoError(t, err)
	}

	got, err := f.articles.FindMany(ctx, Params{Sort: []string{"title:desc"}, Start: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Data["title"])
	assert.Equal(t, "b", got[1].Data["title"])

	news, err := f.articles.FindMany(ctx, Params{Filters: map[string]any{"category": "news"}, Sort: []string{"views:desc"}})
	require.NoError(t, err)
	require.Len(t, news, 2)
	assert.Equal(t, "b", news[0].Data["title"])

	first, err := f.articles.FindFirst(ctx, Params{Filters: map[string]any{"views": 30}})
	require.NoError(t, err)
	assert.Equal(t, "d", first.Data["title"])

	_, err = f.articles.FindFirst(ctx, Params{Filters: map[string]any{"title": "zzz"}})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.articles.FindMany(ctx, Params{Sort: []string{"title:sideways"}})
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = f.articles.Count(ctx, Params{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	article, err := f.articles.Create(ctx, Params{Data: map[string]any{"title": "Bye"}, Status: StatusPublished})
	require.NoError(t, err)
	_, err = f.articles.Update(ctx, article.DocumentID, Params{Locale: "fr", Data: map[string]any{"title": "Adieu"}})
	require.NoError(t, err)

	res, err := f.articles.Delete(ctx, article.DocumentID, Params{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)

	remaining, err := f.articles.Count(ctx, Params{Locale: AllLocales})
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	res, err = f.articles.Delete(ctx, article.DocumentID, Params{Locale: AllLocales})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1)

	_, err = f.articles.Delete(ctx, article.DocumentID, Params{Locale: AllLocales})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSingleType(t *testing.T) {
	homepage := ContentType{
		UID:        "api::homepage.homepage",
		Kind:       SingleType,
		Attributes: map[string]Attribute{"headline": {Type: TypeString}},
	}
	svc, err := NewService([]ContentType{homepage})
	require.NoError(t, err)
	docs, err := svc.Documents(homepage.UID)
	require.NoError(t, err)

	_, err = docs.Create(context.Background(), Params{Data: map[string]any{"headline": "Welcome"}})
	require.NoError(t, err)
	_, err = docs.Create(context.Background(), Params{Data: map[string]any{"headline": "Again"}})
	assert.ErrorIs(t, err, ErrSingleTypeExists)
}

func TestEmitFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, WithLogger(zap.New(core)))
	f.emitter.err = errors.New("endpoint down")

	_, err := f.articles.Create(context.Background(), Params{Data: map[string]any{"title": "Still saved"}})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "emitting webhook event failed", entries[0].Message)
	assert.Equal(t, webhook.EventEntryCreate, entries[0].ContextMap()["event"])
}

func TestDocumentsUnknownType(t *testing.T) {
	svc, err := NewService(nil)
	require.NoError(t, err)

	_, err = svc.Documents("api::nope.nope")
	assert.ErrorIs(t, err, ErrUnknownContentType)
}

func TestNewServiceRejectsDuplicates(t *testing.T) {
	_, err := NewService([]ContentType{authorType, authorType})
	assert.ErrorContains(t, err, "registered twice")
}

// slowStore widens the gap between reads and writes of a mutation.
type slowStore struct {
	*MemoryStore
	delay time.Duration

	mu         sync.Mutex
	inserts    int
	failInsert int
}

func (s *slowStore) Rows(ctx context.Context, uid string, match func(Document) bool) ([]Document, error) {
	time.Sleep(s.delay)
	return s.MemoryStore.Rows(ctx, uid, match)
}

func (s *slowStore) Insert(ctx context.Context, uid string, d Document) (Document, error) {
	s.mu.Lock()
	s.inserts++
	fail := s.failInsert > 0 && s.inserts == s.failInsert
	s.mu.Unlock()
	if fail {
		return Document{}, errors.New("disk full")
	}
	return s.MemoryStore.Insert(ctx, uid, d)
}

func TestConcurrentPublishKeepsOnePublishedVersion(t *testing.T) {
	store := &slowStore{MemoryStore: NewMemoryStore(), delay: 5 * time.Millisecond}
	svc, err := NewService([]ContentType{articleType}, WithStore(store))
	require.NoError(t, err)
	ctx := context.Background()

	articles, err := svc.Documents(articleUID)
	require.NoError(t, err)
	draft, err := articles.Create(ctx, Params{Data: map[string]any{"title": "Race"}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each goroutine uses its own Collection handle.
			c, err := svc.Documents(articleUID)
			if assert.NoError(t, err) {
				_, err = c.Publish(ctx, draft.DocumentID, Params{})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	published, err := articles.Count(ctx, Params{Status: StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, 1, published)
}

func TestConcurrentSingleTypeCreate(t *testing.T) {
	homepage := ContentType{
		UID:        "api::homepage.homepage",
		Kind:       SingleType,
		Attributes: map[string]Attribute{"headline": {Type: TypeString}},
	}
	store := &slowStore{MemoryStore: NewMemoryStore(), delay: 5 * time.Millisecond}
	svc, err := NewService([]ContentType{homepage}, WithStore(store))
	require.NoError(t, err)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		rejected int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := svc.Documents(homepage.UID)
			if !assert.NoError(t, err) {
				return
			}
			if _, err := c.Create(ctx, Params{Data: map[string]any{"headline": "Hi"}}); errors.Is(err, ErrSingleTypeExists) {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	docs, err := svc.Documents(homepage.UID)
	require.NoError(t, err)
	n, err := docs.Count(ctx, Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 7, rejected)
}

func TestCreatePublishedRollsBackDraftOnFailure(t *testing.T) {
	store := &slowStore{MemoryStore: NewMemoryStore(), failInsert: 2}
	emitter := &fakeEmitter{}
	svc, err := NewService([]ContentType{articleType}, WithStore(store), WithEmitter(emitter))
	require.NoError(t, err)
	articles, err := svc.Documents(articleUID)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = articles.Create(ctx, Params{Data: map[string]any{"title": "Doomed"}, Status: StatusPublished})
	assert.ErrorContains(t, err, "disk full")

	n, err := articles.Count(ctx, Params{Locale: AllLocales})
	require.NoError(t, err)
	assert.Zero(t, n, "no draft is left behind")
	assert.Empty(t, emitter.names())
}

func TestNonLocalizedTypeIgnoresRequestedLocale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	author, err := f.authors.Create(ctx, Params{Locale: "fr", Data: map[string]any{"name": "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultLocale, author.Locale)

	found, err := f.authors.FindOne(ctx, author.DocumentID, Params{Locale: "fr"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", found.Data["name"])

	res, err := f.authors.Delete(ctx, author.DocumentID, Params{Locale: "fr"})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1)
}
