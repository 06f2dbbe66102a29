package action

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Registry accepts constructed actions on behalf of the host framework
type Registry interface {
	RegisterAction(a *Action) error
}

// Route is a printable summary of a registered action
type Route struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Auth     string `json:"auth,omitempty"`
}

// RouteOf summarizes an action
func RouteOf(a *Action) Route {
	r := Route{
		Method: a.Method,
		Path:   a.Path,
		Action: a.Kind.String(),
	}
	if a.Resource != nil {
		r.Resource = a.Resource.Name
	}
	if a.RouteConfig.Auth != nil {
		r.Auth = a.RouteConfig.Auth.Mode
	}
	return r
}

// RouteTable records actions by method and path. It is safe to use from
// multiple goroutines.
type RouteTable struct {
	sync.Mutex

	actions []*Action
	index   map[string]*Action
}

var _ Registry = &RouteTable{}

// NewRouteTable returns an empty RouteTable
func NewRouteTable() *RouteTable {
	return &RouteTable{
		actions: make([]*Action, 0),
		index:   make(map[string]*Action, 0),
	}
}

// RegisterAction adds the action, failing if another action is already
// served on the same method and path
func (t *RouteTable) RegisterAction(a *Action) error {
	key := a.Method + " " + a.Path
	t.Lock()
	defer t.Unlock()

	if existing, ok := t.index[key]; ok {
		return fmt.Errorf("route %s already registered by %s", key, existing.Kind)
	}
	t.index[key] = a
	t.actions = append(t.actions, a)
	return nil
}

// Actions returns the registered actions in registration order
func (t *RouteTable) Actions() []*Action {
	t.Lock()
	defer t.Unlock()
	return append([]*Action(nil), t.actions...)
}

// Routes returns summaries of the registered actions in registration order
func (t *RouteTable) Routes() []Route {
	actions := t.Actions()
	routes := make([]Route, 0, len(actions))
	for _, a := range actions {
		routes = append(routes, RouteOf(a))
	}
	return routes
}

// LoggingRegistry logs each action after delegating to an underlying
// Registry
type LoggingRegistry struct {
	registry Registry
	level    zerolog.Level
}

// NewLoggingRegistry wraps registry so that every registration is logged at
// level
func NewLoggingRegistry(registry Registry, level zerolog.Level) LoggingRegistry {
	return LoggingRegistry{registry: registry, level: level}
}

func (r LoggingRegistry) RegisterAction(a *Action) error {
	err := r.registry.RegisterAction(a)
	route := RouteOf(a)
	log.WithLevel(r.level).
		Str("method", route.Method).
		Str("path", route.Path).
		Str("auth", route.Auth).
		Err(err).
		Msg("route")
	return err
}
