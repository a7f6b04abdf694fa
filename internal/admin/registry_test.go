package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func staticLoader(name string) ViewLoader {
	return ViewLoaderFunc(func(context.Context) (*View, error) {
		return &View{Name: name, Body: []byte("<h1>" + name + "</h1>")}, nil
	})
}

func menuLink(to string) MenuLink {
	return MenuLink{
		To:        to,
		Icon:      "puzzle",
		IntlLabel: IntlLabel{ID: "plugin." + to, DefaultMessage: "Plugin " + to},
		Loader:    staticLoader(to),
	}
}

func settingsLink(id, to string) SettingsLink {
	return SettingsLink{
		ID:        id,
		To:        to,
		IntlLabel: IntlLabel{ID: "settings." + id, DefaultMessage: "Settings " + id},
		Loader:    staticLoader(id),
	}
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestNewRegistrySeedsGlobalSection(t *testing.T) {
	reg := NewRegistry()

	sections := reg.Sections()
	require.Len(t, sections, 1)
	assert.Equal(t, GlobalSectionID, sections[0].ID)
	assert.Equal(t, IntlLabel{ID: "Settings.global", DefaultMessage: "Global Settings"}, sections[0].IntlLabel)
	assert.Empty(t, sections[0].Links)
	assert.Empty(t, reg.Menu())
}

func TestAddMenuLink(t *testing.T) {
	t.Run("stores link in order", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.AddMenuLink(menuLink("plugins/a")))
		require.NoError(t, reg.AddMenuLink(menuLink("plugins/b")))

		menu := reg.Menu()
		require.Len(t, menu, 2)
		assert.Equal(t, "plugins/a", menu[0].To)
		assert.Equal(t, "plugins/b", menu[1].To)
		assert.NotNil(t, menu[0].Permissions)
	})

	t.Run("strips leading slash with warning", func(t *testing.T) {
		logger, logs := observed()
		reg := NewRegistry(WithLogger(logger))

		require.NoError(t, reg.AddMenuLink(menuLink("/plugins/a")))

		assert.Equal(t, "plugins/a", reg.Menu()[0].To)
		entries := logs.FilterLevelExact(zapcore.WarnLevel).All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Message, "relative")
	})

	t.Run("validates fields", func(t *testing.T) {
		cases := map[string]func(*MenuLink){
			"missing to":       func(l *MenuLink) { l.To = "" },
			"missing label id": func(l *MenuLink) { l.IntlLabel.ID = "" },
			"missing default":  func(l *MenuLink) { l.IntlLabel.DefaultMessage = "" },
			"missing loader":   func(l *MenuLink) { l.Loader = nil },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				reg := NewRegistry()
				link := menuLink("plugins/a")
				mutate(&link)

				err := reg.AddMenuLink(link)

				var inv *InvariantError
				require.ErrorAs(t, err, &inv)
				assert.Empty(t, reg.Menu())
			})
		}
	})

	t.Run("error message carries label", func(t *testing.T) {
		reg := NewRegistry()
		link := menuLink("x")
		link.To = ""

		err := reg.AddMenuLink(link)
		assert.EqualError(t, err, "[Plugin x]: link.to should be defined")
	})
}

func TestAddSettingsSection(t *testing.T) {
	t.Run("creates section with links", func(t *testing.T) {
		reg := NewRegistry()
		section := SettingsSection{
			ID:        "payments",
			IntlLabel: IntlLabel{ID: "payments.section", DefaultMessage: "Payments"},
			Links:     []*SettingsLink{ptr(settingsLink("stripe", "stripe"))},
		}

		require.NoError(t, reg.AddSettingsSection(section, settingsLink("paypal", "paypal")))

		got, ok := reg.Section("payments")
		require.True(t, ok)
		require.Len(t, got.Links, 2)
		assert.Equal(t, "stripe", got.Links[0].ID)
		assert.Equal(t, "paypal", got.Links[1].ID)

		ids := []string{}
		for _, s := range reg.Sections() {
			ids = append(ids, s.ID)
		}
		assert.Equal(t, []string{"global", "payments"}, ids)
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		reg := NewRegistry()
		err := reg.AddSettingsSection(SettingsSection{
			ID:        GlobalSectionID,
			IntlLabel: IntlLabel{ID: "x", DefaultMessage: "X"},
		})
		assert.ErrorIs(t, err, ErrDuplicateSection)
	})

	t.Run("requires label", func(t *testing.T) {
		reg := NewRegistry()
		err := reg.AddSettingsSection(SettingsSection{ID: "s"})

		var inv *InvariantError
		assert.ErrorAs(t, err, &inv)
	})

	t.Run("is atomic", func(t *testing.T) {
		reg := NewRegistry()
		bad := settingsLink("bad", "bad")
		bad.Loader = nil

		err := reg.AddSettingsSection(SettingsSection{
			ID:        "s",
			IntlLabel: IntlLabel{ID: "s", DefaultMessage: "S"},
		}, settingsLink("good", "good"), bad)

		require.Error(t, err)
		_, ok := reg.Section("s")
		assert.False(t, ok)
	})
}

func TestAddSettingsLinks(t *testing.T) {
	t.Run("extends global", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.AddSettingsLinks(GlobalSectionID, settingsLink("a", "a"), settingsLink("b", "b")))

		global, _ := reg.Section(GlobalSectionID)
		require.Len(t, global.Links, 2)
	})

	t.Run("unknown section", func(t *testing.T) {
		reg := NewRegistry()
		err := reg.AddSettingsLinks("nope", settingsLink("a", "a"))
		assert.ErrorIs(t, err, ErrSectionNotFound)
	})

	t.Run("requires a link", func(t *testing.T) {
		reg := NewRegistry()
		err := reg.AddSettingsLinks(GlobalSectionID)
		assert.ErrorIs(t, err, ErrMissingLinks)
	})

	t.Run("normalizes paths", func(t *testing.T) {
		cases := []struct {
			in   string
			want string
			warn int
		}{
			{in: "webhooks", want: "webhooks"},
			{in: "/webhooks", want: "webhooks", warn: 1},
			{in: "settings/webhooks", want: "webhooks", warn: 1},
			{in: "/settings/webhooks/edit", want: "webhooks/edit", warn: 2},
			{in: "global/settings", want: "global/settings"},
		}
		for _, tc := range cases {
			t.Run(tc.in, func(t *testing.T) {
				logger, logs := observed()
				reg := NewRegistry(WithLogger(logger))

				require.NoError(t, reg.AddSettingsLinks(GlobalSectionID, settingsLink("x", tc.in)))

				global, _ := reg.Section(GlobalSectionID)
				assert.Equal(t, tc.want, global.Links[0].To)
				assert.Equal(t, tc.warn, logs.FilterLevelExact(zapcore.WarnLevel).Len())
			})
		}
	})

	t.Run("is atomic", func(t *testing.T) {
		reg := NewRegistry()
		bad := settingsLink("", "b")

		err := reg.AddSettingsLinks(GlobalSectionID, settingsLink("a", "a"), bad)
		require.Error(t, err)

		global, _ := reg.Section(GlobalSectionID)
		assert.Empty(t, global.Links)
	})
}

func TestSeal(t *testing.T) {
	reg := NewRegistry()
	reg.Seal()

	assert.ErrorIs(t, reg.AddMenuLink(menuLink("a")), ErrRegistrySealed)
	assert.ErrorIs(t, reg.AddSettingsLinks(GlobalSectionID, settingsLink("a", "a")), ErrRegistrySealed)
	assert.ErrorIs(t, reg.AddSettingsSection(SettingsSection{ID: "s"}), ErrRegistrySealed)
}

type pluginFunc struct {
	name string
	fn   func(*Registry) error
}

func (p pluginFunc) Name() string { return p.name }

func (p pluginFunc) Register(_ context.Context, r *Registry) error { return p.fn(r) }

func TestInitialize(t *testing.T) {
	t.Run("runs plugins in order and seals", func(t *testing.T) {
		var order []string
		a := pluginFunc{name: "a", fn: func(r *Registry) error {
			order = append(order, "a")
			return r.AddMenuLink(menuLink("a"))
		}}
		b := pluginFunc{name: "b", fn: func(r *Registry) error {
			order = append(order, "b")
			return r.AddSettingsLinks(GlobalSectionID, settingsLink("b", "b"))
		}}

		reg, err := Initialize(context.Background(), a, b)
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b"}, order)
		assert.True(t, reg.Sealed())
		assert.Len(t, reg.Menu(), 1)
	})

	t.Run("wraps plugin error", func(t *testing.T) {
		boom := errors.New("boom")
		p := pluginFunc{name: "broken", fn: func(*Registry) error { return boom }}

		_, err := Initialize(context.Background(), p)
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "registering plugin broken")
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Initialize(ctx, pluginFunc{name: "a", fn: func(*Registry) error { return nil }})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMatchLinks(t *testing.T) {
	reg := NewRegistry()
	exact := menuLink("content-manager")
	exact.Exact = true
	require.NoError(t, reg.AddMenuLink(exact))
	require.NoError(t, reg.AddMenuLink(menuLink("plugins/upload")))
	require.NoError(t, reg.AddMenuLink(menuLink("plugins/upload/assets")))
	require.NoError(t, reg.AddSettingsLinks(GlobalSectionID, settingsLink("webhooks", "webhooks")))

	l, ok := reg.MatchMenuLink("content-manager")
	require.True(t, ok)
	assert.Equal(t, "content-manager", l.To)

	_, ok = reg.MatchMenuLink("content-manager/edit")
	assert.False(t, ok)

	l, ok = reg.MatchMenuLink("plugins/upload/assets/1")
	require.True(t, ok)
	assert.Equal(t, "plugins/upload/assets", l.To)

	s, ok := reg.MatchSettingsLink("webhooks/create")
	require.True(t, ok)
	assert.Equal(t, "webhooks", s.ID)
}

func ptr[T any](v T) *T { return &v }
