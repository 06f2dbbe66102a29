package mapper

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/optics-team/prism-action-mapper/pkg/action"
	"github.com/optics-team/prism-action-mapper/pkg/config"
	"github.com/optics-team/prism-action-mapper/pkg/resource"
	"github.com/optics-team/prism-action-mapper/pkg/security"
)

const source = "mockSource"

type recordingActions struct {
	actions []*action.Action
	err     error
}

func (r *recordingActions) RegisterAction(a *action.Action) error {
	if r.err != nil {
		return r.err
	}
	r.actions = append(r.actions, a)
	return nil
}

type recordingBackends struct {
	backends []*security.Backend
	err      error
}

func (r *recordingBackends) RegisterBackend(b *security.Backend) error {
	if r.err != nil {
		return r.err
	}
	r.backends = append(r.backends, b)
	return nil
}

type fixture struct {
	actions  *recordingActions
	backends *recordingBackends
	logs     *bytes.Buffer
	mapper   *ActionMapper
}

func newFixture(m config.ActionMap, opts ...Option) *fixture {
	f := &fixture{
		actions:  &recordingActions{},
		backends: &recordingBackends{},
		logs:     &bytes.Buffer{},
	}
	opts = append([]Option{WithLogger(zerolog.New(f.logs))}, opts...)
	f.mapper = NewActionMapper(f.actions, f.backends, source, m, opts...)
	return f
}

func (f *fixture) logLines(t *testing.T) []map[string]interface{} {
	lines := make([]map[string]interface{}, 0)
	for _, l := range strings.Split(strings.TrimSpace(f.logs.String()), "\n") {
		if l == "" {
			continue
		}
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(l), &line))
		lines = append(lines, line)
	}
	return lines
}

func static(e *config.Entry) config.EntrySource {
	return config.Static{Entry: e}
}

func strPtr(s string) *string { return &s }

func TestRegisterWithoutConfiguration(t *testing.T) {
	tests := []struct {
		name string
		m    config.ActionMap
	}{
		{"empty map", config.ActionMap{}},
		{"nil map", nil},
		{"other entity", config.ActionMap{"other": static(&config.Entry{Backend: &config.BackendConfig{}})}},
		{"empty entry", config.ActionMap{"test_table": static(&config.Entry{})}},
		{"nil entry", config.ActionMap{"test_table": static(nil)}},
		{"dynamic nil entry", config.ActionMap{"test_table": config.Dynamic(func(*resource.Entity) (*config.Entry, error) {
			return nil, nil
		})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.m)
			require.NoError(t, f.mapper.Register(&resource.Entity{Name: "test_table"}))
			require.Empty(t, f.actions.actions)
			require.Empty(t, f.backends.backends)
			require.Empty(t, f.logs.String())
		})
	}
}

func TestRegisterBackend(t *testing.T) {
	f := newFixture(config.ActionMap{
		"test_table": static(&config.Entry{Backend: &config.BackendConfig{}}),
	})
	require.NoError(t, f.mapper.Register(&resource.Entity{Name: "test_table"}))

	require.Len(t, f.backends.backends, 1)
	require.Empty(t, f.actions.actions)
	b := f.backends.backends[0]
	require.Equal(t, security.Options{}, b.Options)
	require.Equal(t, "test_table", b.Resource.Name)
	require.Equal(t, source, b.Resource.Source)

	lines := f.logLines(t)
	require.Len(t, lines, 1)
	require.Equal(t, "info", lines[0]["level"])
	require.Equal(t, "test_table", lines[0]["resource"])
}

func TestRegisterBackendOptions(t *testing.T) {
	f := newFixture(config.ActionMap{
		"test_table": static(&config.Entry{Backend: &config.BackendConfig{
			Options: &security.Options{Redact: "**TEST**"},
		}}),
	})
	require.NoError(t, f.mapper.Register(&resource.Entity{Name: "test_table"}))
	require.Equal(t, "**TEST**", f.backends.backends[0].Options.Redact)
}

func TestRegisterBackendMerge(t *testing.T) {
	f := newFixture(config.ActionMap{
		"test_table": static(&config.Entry{Backend: &config.BackendConfig{
			Merge: &security.Merge{Schema: strPtr("definition test {}")},
		}}),
	})
	require.NoError(t, f.mapper.Register(&resource.Entity{Name: "test_table"}))
	require.Equal(t, "definition test {}", f.backends.backends[0].Schema)
}

func TestRegisterAction(t *testing.T) {
	f := newFixture(config.ActionMap{
		"test_table": static(&config.Entry{ReadItem: &config.ActionConfig{}}),
	})
	require.NoError(t, f.mapper.Register(&resource.Entity{Name: "test_table", PrimaryKeys: []string{"id"}}))

	require.Empty(t, f.backends.backends)
	require.Len(t, f.actions.actions, 1)
	a := f.actions.actions[0]
	require.Equal(t, action.KindReadItem, a.Kind)
	require.Equal(t, "/test_table/{id}", a.Path)

	lines := f.logLines(t)
	require.Len(t, lines, 1)
	require.Equal(t, "readItem", lines[0]["action"])
	require.Equal(t, "test_table", lines[0]["resource"])
}

func TestRegisterActionOptions(t *testing.T) {
	for _, kind := range []action.Kind{action.KindReadItem, action.KindReadCollection} {
		t.Run(kind.String(), func(t *testing.T) {
			entry := &config.Entry{}
			cfg := &config.ActionConfig{Options: &action.Options{PageSize: 5}}
			if kind == action.KindReadItem {
				entry.ReadItem = cfg
			} else {
				entry.ReadCollection = cfg
			}
			f := newFixture(config.ActionMap{"test_table": static(entry)})
			require.NoError(t, f.mapper.Register(&resource.Entity{Name: "test_table", PrimaryKeys: []string{"id"}}))

			require.Len(t, f.actions.actions, 1)
			require.Equal(t, 5, f.actions.actions[0].Options.PageSize)
		})
	}
}

func TestRegisterActionMerge(t *testing.T) {
	f := newFixture(config.ActionMap{
		"test_table": static(&config.Entry{ReadItem: &config.ActionConfig{
			Merge: &action.Merge{Path: strPtr("/test")},
		}}),
	})
	require.NoError(t, f.mapper.Register(&resource.Entity{Name: "test_table", PrimaryKeys: []string{"id"}}))
	require.Equal(t, "/test", f.actions.actions[0].Path)
}

func TestRegisterPublicAction(t *testing.T) {
	optional := action.RouteConfig{Auth: &action.Auth{Mode: action.AuthModeOptional}}
	merged := action.RouteConfig{
		Auth:        &action.Auth{Mode: action.AuthModeTry, Scope: []string{"admin"}},
		Description: "merged",
	}

	tests := []struct {
		name string
		cfg  *config.ActionConfig
		want action.RouteConfig
	}{
		{
			name: "public without merge",
			cfg:  &config.ActionConfig{Public: true},
			want: optional,
		},
		{
			name: "public overrides merged route config",
			cfg:  &config.ActionConfig{Public: true, Merge: &action.Merge{RouteConfig: &merged}},
			want: optional,
		},
		{
			name: "merged route config is kept when not public",
			cfg:  &config.ActionConfig{Merge: &action.Merge{RouteConfig: &merged}},
			want: merged,
		},
		{
			name: "not public",
			cfg:  &config.ActionConfig{},
			want: action.RouteConfig{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(config.ActionMap{"test_table": static(&config.Entry{ReadCollection: tt.cfg})})
			require.NoError(t, f.mapper.Register(&resource.Entity{Name: "test_table"}))
			require.Equal(t, tt.want, f.actions.actions[0].RouteConfig)
		})
	}
}

func TestRegisterAllKindsInOrder(t *testing.T) {
	f := newFixture(config.ActionMap{
		"test_table": static(&config.Entry{
			DeleteItem:     &config.ActionConfig{},
			UpdateItem:     &config.ActionConfig{},
			CreateItem:     &config.ActionConfig{},
			ReadCollection: &config.ActionConfig{},
			ReadItem:       &config.ActionConfig{},
			Backend:        &config.BackendConfig{},
		}),
	})
	require.NoError(t, f.mapper.Register(&resource.Entity{Name: "test_table", PrimaryKeys: []string{"id"}}))

	require.Len(t, f.backends.backends, 1)
	kinds := make([]action.Kind, 0)
	for _, a := range f.actions.actions {
		kinds = append(kinds, a.Kind)
		require.Same(t, f.backends.backends[0].Resource, a.Resource)
	}
	require.Equal(t, action.Kinds(), kinds)

	lines := f.logLines(t)
	require.Len(t, lines, 6)
	require.Nil(t, lines[0]["action"])
	for i, kind := range action.Kinds() {
		require.Equal(t, kind.String(), lines[i+1]["action"])
	}
}

func TestRegisterResolvesResource(t *testing.T) {
	entity := &resource.Entity{
		Name:        "test_table",
		Kind:        resource.KindView,
		PrimaryKeys: []string{"id"},
		Extra:       map[string]interface{}{"schema": "public"},
	}
	calls := 0
	f := newFixture(config.ActionMap{
		"test_table": config.Dynamic(func(e *resource.Entity) (*config.Entry, error) {
			calls++
			require.Same(t, entity, e)
			return &config.Entry{
				Resource: &resource.Overlay{
					PrimaryKeys: append(append([]string{}, e.PrimaryKeys...), "extra"),
					Extra:       map[string]interface{}{"source": "overridden"},
				},
				ReadCollection: &config.ActionConfig{},
			}, nil
		}),
	})
	require.NoError(t, f.mapper.Register(entity))

	require.Equal(t, 1, calls)
	require.Len(t, f.actions.actions, 1)
	res := f.actions.actions[0].Resource
	require.Equal(t, &resource.Resource{
		Name:        "test_table",
		Kind:        resource.KindView,
		PrimaryKeys: []string{"id", "extra"},
		Extra:       map[string]interface{}{"schema": "public", "source": "overridden"},
		Source:      source,
	}, res)
	require.Equal(t, []string{"id"}, entity.PrimaryKeys)
}

func TestRegisterTwiceRegistersTwice(t *testing.T) {
	f := newFixture(config.ActionMap{
		"test_table": static(&config.Entry{Backend: &config.BackendConfig{}, ReadCollection: &config.ActionConfig{}}),
	})
	entity := &resource.Entity{Name: "test_table"}
	require.NoError(t, f.mapper.Register(entity))
	require.NoError(t, f.mapper.Register(entity))

	require.Len(t, f.backends.backends, 2)
	require.Len(t, f.actions.actions, 2)
	require.NotSame(t, f.actions.actions[0], f.actions.actions[1])
}

func TestRegisterErrors(t *testing.T) {
	boom := errors.New("boom")
	entity := &resource.Entity{Name: "test_table"}

	t.Run("dynamic entry", func(t *testing.T) {
		f := newFixture(config.ActionMap{
			"test_table": config.Dynamic(func(*resource.Entity) (*config.Entry, error) { return nil, boom }),
		})
		require.ErrorIs(t, f.mapper.Register(entity), boom)
	})

	t.Run("missing primary keys", func(t *testing.T) {
		f := newFixture(config.ActionMap{
			"test_table": static(&config.Entry{ReadCollection: &config.ActionConfig{}, ReadItem: &config.ActionConfig{}}),
		})
		require.Error(t, f.mapper.Register(entity))
		require.Empty(t, f.actions.actions)
	})

	t.Run("action constructor", func(t *testing.T) {
		f := newFixture(
			config.ActionMap{"test_table": static(&config.Entry{CreateItem: &config.ActionConfig{}})},
			WithConstructor(action.KindCreateItem, func(*resource.Resource, action.Options) (*action.Action, error) {
				return nil, boom
			}),
		)
		require.ErrorIs(t, f.mapper.Register(entity), boom)
		require.Empty(t, f.logs.String())
	})

	t.Run("backend constructor", func(t *testing.T) {
		f := newFixture(
			config.ActionMap{"test_table": static(&config.Entry{Backend: &config.BackendConfig{}, ReadCollection: &config.ActionConfig{}})},
			WithBackendConstructor(func(*resource.Resource, security.Options) (*security.Backend, error) {
				return nil, boom
			}),
		)
		require.ErrorIs(t, f.mapper.Register(entity), boom)
		require.Empty(t, f.actions.actions)
	})

	t.Run("action registry", func(t *testing.T) {
		f := newFixture(config.ActionMap{"test_table": static(&config.Entry{ReadCollection: &config.ActionConfig{}})})
		f.actions.err = boom
		require.ErrorIs(t, f.mapper.Register(entity), boom)
	})

	t.Run("backend registry", func(t *testing.T) {
		f := newFixture(config.ActionMap{"test_table": static(&config.Entry{Backend: &config.BackendConfig{}})})
		f.backends.err = boom
		require.ErrorIs(t, f.mapper.Register(entity), boom)
	})
}

func TestWithConstructor(t *testing.T) {
	var gotOptions action.Options
	f := newFixture(
		config.ActionMap{"test_table": static(&config.Entry{ReadCollection: &config.ActionConfig{
			Options: &action.Options{PageSize: 7},
		}})},
		WithConstructor(action.KindReadCollection, func(res *resource.Resource, opts action.Options) (*action.Action, error) {
			gotOptions = opts
			return &action.Action{Kind: action.KindReadCollection, Resource: res, Method: "GET", Path: "/custom"}, nil
		}),
	)
	require.NoError(t, f.mapper.Register(&resource.Entity{Name: "test_table"}))
	require.Equal(t, action.Options{PageSize: 7}, gotOptions)
	require.Equal(t, "/custom", f.actions.actions[0].Path)
}

func TestRegisterAll(t *testing.T) {
	f := newFixture(config.ActionMap{
		"users": static(&config.Entry{ReadItem: &config.ActionConfig{}}),
		"tags":  static(&config.Entry{ReadCollection: &config.ActionConfig{}}),
	})
	require.NoError(t, f.mapper.RegisterAll([]*resource.Entity{
		{Name: "users", PrimaryKeys: []string{"id"}},
		{Name: "unmapped"},
		{Name: "tags"},
	}))
	require.Len(t, f.actions.actions, 2)
	require.Equal(t, "users", f.actions.actions[0].Resource.Name)
	require.Equal(t, "tags", f.actions.actions[1].Resource.Name)

	f = newFixture(config.ActionMap{
		"users": static(&config.Entry{ReadItem: &config.ActionConfig{}}),
		"tags":  static(&config.Entry{ReadCollection: &config.ActionConfig{}}),
	})
	require.Error(t, f.mapper.RegisterAll([]*resource.Entity{{Name: "users"}, {Name: "tags"}}))
	require.Empty(t, f.actions.actions)
}

func TestRegisterIntoRouteTable(t *testing.T) {
	table := action.NewRouteTable()
	backends := security.NewSchemaRegistry(nil)
	m := NewActionMapper(table, backends, source, config.ActionMap{
		"users": static(&config.Entry{
			Backend:  &config.BackendConfig{},
			ReadItem: &config.ActionConfig{Public: true},
		}),
	}, WithLogger(zerolog.Nop()))

	entity := &resource.Entity{Name: "users", PrimaryKeys: []string{"id"}}
	require.NoError(t, m.Register(entity))
	require.Equal(t, []action.Route{
		{Method: "GET", Path: "/users/{id}", Action: "readItem", Resource: "users", Auth: action.AuthModeOptional},
	}, table.Routes())
	require.Equal(t, "\ndefinition users {}\n", backends.Schema())

	require.Error(t, m.Register(entity))
}
