package mapper

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/optics-team/prism-action-mapper/pkg/action"
	"github.com/optics-team/prism-action-mapper/pkg/config"
	"github.com/optics-team/prism-action-mapper/pkg/resource"
	"github.com/optics-team/prism-action-mapper/pkg/security"
)

// ActionMapper registers actions and security backends for entities
// according to an ActionMap. It holds no state that changes between calls
// to Register.
type ActionMapper struct {
	actions   action.Registry
	backends  security.Registry
	source    resource.Source
	actionMap config.ActionMap

	constructors map[action.Kind]action.Constructor
	newBackend   security.Constructor
	logger       zerolog.Logger
}

// Option customizes an ActionMapper
type Option func(m *ActionMapper)

// WithConstructor replaces the constructor used for one action kind
func WithConstructor(kind action.Kind, c action.Constructor) Option {
	return func(m *ActionMapper) {
		m.constructors[kind] = c
	}
}

// WithBackendConstructor replaces the security backend constructor
func WithBackendConstructor(c security.Constructor) Option {
	return func(m *ActionMapper) {
		m.newBackend = c
	}
}

// WithLogger sets the logger registrations are reported to
func WithLogger(logger zerolog.Logger) Option {
	return func(m *ActionMapper) {
		m.logger = logger
	}
}

// NewActionMapper returns an ActionMapper. Nothing is registered until
// Register is called.
func NewActionMapper(actions action.Registry, backends security.Registry, source resource.Source, actionMap config.ActionMap, opts ...Option) *ActionMapper {
	m := &ActionMapper{
		actions:      actions,
		backends:     backends,
		source:       source,
		actionMap:    actionMap,
		constructors: action.Constructors(),
		newBackend:   security.New,
		logger:       log.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register registers the backend and actions configured for entity. Entities
// with no configuration entry are skipped. Calling Register twice for the
// same entity registers everything twice.
func (m *ActionMapper) Register(entity *resource.Entity) error {
	entry, err := m.actionMap.Lookup(entity)
	if err != nil {
		return fmt.Errorf("resolving configuration for %q: %w", entity.Name, err)
	}
	if entry == nil {
		return nil
	}

	res := resource.Resolve(entity, entry.Resource, m.source)

	if err := m.registerBackend(res, entry); err != nil {
		return err
	}
	for _, kind := range action.Kinds() {
		if err := m.registerAction(res, entry, kind); err != nil {
			return err
		}
	}
	return nil
}

// RegisterAll calls Register for each entity in order, stopping at the first
// error
func (m *ActionMapper) RegisterAll(entities []*resource.Entity) error {
	for _, e := range entities {
		if err := m.Register(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *ActionMapper) registerBackend(res *resource.Resource, entry *config.Entry) error {
	cfg := entry.Backend
	if cfg == nil {
		return nil
	}

	backend, err := m.newBackend(res, cfg.BackendOptions())
	if err != nil {
		return fmt.Errorf("constructing security backend for resource %q: %w", res.Name, err)
	}
	cfg.Merge.Apply(backend)

	m.logger.Info().Str("resource", res.Name).Msg("registering security backend")
	if err := m.backends.RegisterBackend(backend); err != nil {
		return fmt.Errorf("registering security backend for resource %q: %w", res.Name, err)
	}
	return nil
}

func (m *ActionMapper) registerAction(res *resource.Resource, entry *config.Entry, kind action.Kind) error {
	cfg := entry.Action(kind)
	if cfg == nil {
		return nil
	}
	newAction, ok := m.constructors[kind]
	if !ok || newAction == nil {
		return fmt.Errorf("no constructor for action %s", kind)
	}

	a, err := newAction(res, cfg.ActionOptions())
	if err != nil {
		return fmt.Errorf("constructing action %s for resource %q: %w", kind, res.Name, err)
	}

	// public is applied after merge, so it replaces any merged route config
	cfg.Merge.Apply(a)
	if cfg.Public {
		a.MakePublic()
	}

	m.logger.Info().Stringer("action", kind).Str("resource", res.Name).Msg("registering action")
	if err := m.actions.RegisterAction(a); err != nil {
		return fmt.Errorf("registering action %s for resource %q: %w", kind, res.Name, err)
	}
	return nil
}
