package router

import (
	"slices"

	"github.com/vango-dev/evalboard/pkg/routepath"
)

// DefaultRedirectLimit caps the redirects followed by one navigation.
const DefaultRedirectLimit = 10

// Table is an immutable, validated route table.
// It is safe for concurrent use once built.
type Table struct {
	routes   []Route
	index    map[string]int
	names    map[string]int
	shadowed []Route
}

// Build flattens and validates route definitions.
//
// Children of a layout group are joined to the group path unless they are
// absolute. Validation is eager: sibling path collisions, empty layout
// groups, definitions whose fields do not match their kind, duplicate names
// and redirect targets that do not resolve all fail with a *ConfigError.
// When two definitions in different scopes produce the same path, the first
// in depth-first order wins and the other is reported by Shadowed.
func Build(defs []RouteDefinition) (*Table, error) {
	t := &Table{
		index: make(map[string]int),
		names: make(map[string]int),
	}
	if err := t.add(defs, "/", nil); err != nil {
		return nil, err
	}

	for _, r := range t.routes {
		if r.Kind != KindRedirect {
			continue
		}
		if _, ok := t.index[r.Target]; !ok {
			return nil, configErrorf(r.Path, "redirect target %q does not match any route", r.Target)
		}
	}

	return t, nil
}

// MustBuild is like Build but panics on error. Intended for static tables.
func MustBuild(defs []RouteDefinition) *Table {
	t, err := Build(defs)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) add(defs []RouteDefinition, parent string, layouts []ViewRef) error {
	siblings := make(map[string]struct{}, len(defs))

	for _, d := range defs {
		path, err := routepath.Join(parent, d.Path)
		if err != nil {
			return configErrorf(d.Path, "invalid path: %v", err)
		}
		if _, dup := siblings[path]; dup {
			return configErrorf(d.Path, "duplicate path %q among siblings", path)
		}
		siblings[path] = struct{}{}

		if err := checkShape(d); err != nil {
			return err
		}

		if d.Kind == KindLayoutGroup {
			inner := layouts
			if d.Layout != nil {
				inner = append(slices.Clone(layouts), d.Layout)
			}
			if err := t.add(d.Children, path, inner); err != nil {
				return err
			}
			continue
		}

		r := Route{
			Path:    path,
			Name:    d.Name,
			Kind:    d.Kind,
			View:    d.View,
			Layouts: slices.Clone(layouts),
		}
		if d.Kind == KindRedirect {
			target, err := routepath.Join(parent, d.Target)
			if err != nil {
				return configErrorf(d.Path, "invalid redirect target %q: %v", d.Target, err)
			}
			r.Target = target
		}

		if _, exists := t.index[path]; exists {
			t.shadowed = append(t.shadowed, r)
			continue
		}
		if r.Name != "" {
			if _, dup := t.names[r.Name]; dup {
				return configErrorf(d.Path, "duplicate route name %q", r.Name)
			}
			t.names[r.Name] = len(t.routes)
		}
		t.index[path] = len(t.routes)
		t.routes = append(t.routes, r)
	}

	return nil
}

func checkShape(d RouteDefinition) error {
	switch d.Kind {
	case KindLeaf:
		if d.View == nil {
			return configErrorf(d.Path, "leaf route has no view")
		}
		if d.Target != "" || len(d.Children) > 0 || d.Layout != nil {
			return configErrorf(d.Path, "leaf route may only set a view")
		}
	case KindRedirect:
		if d.Target == "" {
			return configErrorf(d.Path, "redirect route has no target")
		}
		if d.View != nil || len(d.Children) > 0 || d.Layout != nil {
			return configErrorf(d.Path, "redirect route may only set a target")
		}
	case KindLayoutGroup:
		if len(d.Children) == 0 {
			return configErrorf(d.Path, "layout group has no children")
		}
		if d.View != nil || d.Target != "" {
			return configErrorf(d.Path, "layout group may only set a layout and children")
		}
		if d.Name != "" {
			return configErrorf(d.Path, "layout group cannot be named")
		}
	default:
		return configErrorf(d.Path, "unknown route kind %v", d.Kind)
	}
	return nil
}

// Resolve returns the route stored at exactly path.
func (t *Table) Resolve(path string) (Route, bool) {
	i, ok := t.index[path]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// Lookup returns the route with the given name.
func (t *Table) Lookup(name string) (Route, bool) {
	i, ok := t.names[name]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// Follow resolves path and follows table redirects, up to limit hops.
// It returns the final route and every path visited, starting with path.
// Guards are not consulted.
func (t *Table) Follow(path string, limit int) (Route, []string, error) {
	visited := []string{path}
	hops := 0
	for {
		r, ok := t.Resolve(path)
		if !ok {
			return Route{}, visited, &NavigationError{Kind: ErrRouteNotFound, Path: path, Hops: hops, Guard: -1}
		}
		if r.Kind != KindRedirect {
			return r, visited, nil
		}
		hops++
		if hops > limit {
			return Route{}, visited, &NavigationError{Kind: ErrRedirectLoop, Path: path, Hops: hops, Guard: -1}
		}
		path = r.Target
		visited = append(visited, path)
	}
}

// Routes returns the resolvable routes in definition order.
func (t *Table) Routes() []Route {
	return slices.Clone(t.routes)
}

// Shadowed returns routes hidden by an earlier route with the same path.
func (t *Table) Shadowed() []Route {
	return slices.Clone(t.shadowed)
}

// Len returns the number of resolvable routes.
func (t *Table) Len() int {
	return len(t.routes)
}
