package action

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/optics-team/prism-action-mapper/pkg/resource"
)

// DefaultPageSize is used by read-collection actions when no page size is
// configured
const DefaultPageSize = 20

// Route authorization modes
const (
	AuthModeRequired = "required"
	AuthModeOptional = "optional"
	AuthModeTry      = "try"
)

// Auth is the authorization part of a route's configuration
type Auth struct {
	Mode  string   `json:"mode,omitempty"`
	Scope []string `json:"scope,omitempty"`
}

// RouteConfig is handed to the host framework along with the route
type RouteConfig struct {
	Auth        *Auth    `json:"auth,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Options are construction options. PageSize is only read by
// read-collection actions; other kinds keep options as given.
type Options struct {
	PageSize int `json:"pageSize,omitempty"`
	// Extra holds kind-specific options for host actions, passed through
	// untouched
	Extra map[string]interface{} `json:"-"`
}

// UnmarshalJSON reads pageSize and keeps every other key in Extra
func (o *Options) UnmarshalJSON(data []byte) error {
	var known struct {
		PageSize int `json:"pageSize"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var extra map[string]interface{}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	delete(extra, "pageSize")
	o.PageSize = known.PageSize
	o.Extra = nil
	if len(extra) > 0 {
		o.Extra = extra
	}
	return nil
}

// MarshalJSON writes Extra alongside pageSize
func (o Options) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(o.Extra)+1)
	for k, v := range o.Extra {
		out[k] = v
	}
	if o.PageSize != 0 {
		out["pageSize"] = o.PageSize
	}
	return json.Marshal(out)
}

func (o Options) clone() Options {
	if o.Extra == nil {
		return o
	}
	extra := make(map[string]interface{}, len(o.Extra))
	for k, v := range o.Extra {
		extra[k] = v
	}
	o.Extra = extra
	return o
}

// Action is a unit of CRUD behaviour for a single resource
type Action struct {
	Kind        Kind
	Resource    *resource.Resource
	Method      string
	Path        string
	RouteConfig RouteConfig
	Options     Options
}

// Constructor builds an action of one kind for a resource
type Constructor func(res *resource.Resource, opts Options) (*Action, error)

// Constructors returns the default constructor for every kind
func Constructors() map[Kind]Constructor {
	return map[Kind]Constructor{
		KindReadItem:       NewReadItem,
		KindReadCollection: NewReadCollection,
		KindCreateItem:     NewCreateItem,
		KindUpdateItem:     NewUpdateItem,
		KindDeleteItem:     NewDeleteItem,
	}
}

// NewReadItem returns an action that reads one row by primary key
func NewReadItem(res *resource.Resource, opts Options) (*Action, error) {
	return newAction(KindReadItem, res, opts)
}

// NewReadCollection returns an action that reads pages of rows
func NewReadCollection(res *resource.Resource, opts Options) (*Action, error) {
	if opts.PageSize < 0 {
		return nil, fmt.Errorf("invalid page size %d", opts.PageSize)
	}
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	return newAction(KindReadCollection, res, opts)
}

// NewCreateItem returns an action that inserts a row
func NewCreateItem(res *resource.Resource, opts Options) (*Action, error) {
	return newAction(KindCreateItem, res, opts)
}

// NewUpdateItem returns an action that patches one row by primary key
func NewUpdateItem(res *resource.Resource, opts Options) (*Action, error) {
	return newAction(KindUpdateItem, res, opts)
}

// NewDeleteItem returns an action that deletes one row by primary key
func NewDeleteItem(res *resource.Resource, opts Options) (*Action, error) {
	return newAction(KindDeleteItem, res, opts)
}

func newAction(kind Kind, res *resource.Resource, opts Options) (*Action, error) {
	if res == nil || res.Name == "" {
		return nil, fmt.Errorf("%s requires a named resource", kind)
	}
	path := "/" + res.Name
	if kind.ItemScoped() {
		if len(res.PrimaryKeys) == 0 {
			return nil, fmt.Errorf("%s requires primary keys on resource %q", kind, res.Name)
		}
		params := make([]string, 0, len(res.PrimaryKeys))
		for _, pk := range res.PrimaryKeys {
			params = append(params, "{"+pk+"}")
		}
		path += "/" + strings.Join(params, "/")
	}
	return &Action{
		Kind:     kind,
		Resource: res,
		Method:   kind.Method(),
		Path:     path,
		Options:  opts.clone(),
	}, nil
}

// Merge is a partial update applied to a constructed action. Every non-nil
// field replaces the action's value.
type Merge struct {
	Method      *string      `json:"method,omitempty"`
	Path        *string      `json:"path,omitempty"`
	RouteConfig *RouteConfig `json:"routeConfig,omitempty"`
}

// Apply overlays m onto a. A nil Merge is a no-op.
func (m *Merge) Apply(a *Action) {
	if m == nil {
		return
	}
	if m.Method != nil {
		a.Method = *m.Method
	}
	if m.Path != nil {
		a.Path = *m.Path
	}
	if m.RouteConfig != nil {
		a.RouteConfig = m.RouteConfig.clone()
	}
}

// clone copies c so that actions never share Auth or Tags with the
// configuration they were merged from
func (c RouteConfig) clone() RouteConfig {
	out := RouteConfig{
		Description: c.Description,
		Tags:        copyStrings(c.Tags),
	}
	if c.Auth != nil {
		out.Auth = &Auth{Mode: c.Auth.Mode, Scope: copyStrings(c.Auth.Scope)}
	}
	return out
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// MakePublic replaces the route configuration so that authentication is
// optional
func (a *Action) MakePublic() {
	a.RouteConfig = RouteConfig{Auth: &Auth{Mode: AuthModeOptional}}
}
