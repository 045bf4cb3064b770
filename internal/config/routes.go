package config

import (
	"fmt"
	"strings"

	"github.com/vango-dev/evalboard/internal/errors"
	"github.com/vango-dev/evalboard/pkg/router"
	"github.com/vango-dev/evalboard/pkg/view"
)

// RouteDefinitions converts the configured route tree into router
// definitions, resolving view names through registry. Shape errors are
// left to router.Build; only unknown views are reported here.
func (c *Config) RouteDefinitions(registry *view.Registry) ([]router.RouteDefinition, error) {
	return c.convert(c.Routes, registry)
}

func (c *Config) convert(routes []RouteConfig, registry *view.Registry) ([]router.RouteDefinition, error) {
	defs := make([]router.RouteDefinition, 0, len(routes))
	for _, rc := range routes {
		def := router.RouteDefinition{
			Path:   rc.Path,
			Name:   rc.Name,
			Target: rc.Redirect,
		}

		var err error
		if def.View, err = c.lookupView(registry, rc.Path, rc.View); err != nil {
			return nil, err
		}
		if def.Layout, err = c.lookupView(registry, rc.Path, rc.Layout); err != nil {
			return nil, err
		}

		switch {
		case len(rc.Children) > 0:
			def.Kind = router.KindLayoutGroup
			if def.Children, err = c.convert(rc.Children, registry); err != nil {
				return nil, err
			}
		case rc.Redirect != "":
			def.Kind = router.KindRedirect
		default:
			def.Kind = router.KindLeaf
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (c *Config) lookupView(registry *view.Registry, path, name string) (router.ViewRef, error) {
	if name == "" {
		return nil, nil
	}
	v, ok := registry.Get(name)
	if !ok {
		return nil, errors.New("E103").
			WithFile(c.source).
			WithDetail(fmt.Sprintf("route %q uses view %q which is not registered", path, name)).
			WithSuggestion("Use one of: " + strings.Join(registry.Names(), ", "))
	}
	return v, nil
}

// BuildTable converts the route tree and builds the route table.
func (c *Config) BuildTable(registry *view.Registry) (*router.Table, error) {
	defs, err := c.RouteDefinitions(registry)
	if err != nil {
		return nil, err
	}
	table, err := router.Build(defs)
	if err != nil {
		return nil, errors.New("E104").
			WithFile(c.source).
			WithDetail(err.Error()).
			Wrap(err)
	}
	return table, nil
}
