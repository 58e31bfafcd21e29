// Package extensions expands app extensions in a project manifest into
// the plugs and parts they stand for.
package extensions

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/medubelko/snapcraft/pkg/project"
)

// Extension declares what a named extension contributes to a project.
type Extension struct {
	Name  string
	Bases []string
	// Plugs are added to every app that selects the extension.
	Plugs []string
	// Parts are added to the project once, keyed by part name.
	Parts map[string]project.Part
}

// SupportsBase reports whether the extension works on the given base.
func (e Extension) SupportsBase(base string) bool {
	for _, b := range e.Bases {
		if b == base {
			return true
		}
	}
	return false
}

// registry holds all known extensions keyed by name.
var registry = map[string]Extension{
	"gnome": {
		Name:  "gnome",
		Bases: []string{"core22", "core24"},
		Plugs: []string{"desktop", "desktop-legacy", "gsettings", "opengl", "wayland", "x11"},
		Parts: map[string]project.Part{
			"gnome/sdk": {
				Plugin: "nil",
				Source: "https://github.com/canonical/snapcraft-desktop-integration.git",
			},
		},
	},
	"kde-neon": {
		Name:  "kde-neon",
		Bases: []string{"core22", "core24"},
		Plugs: []string{"desktop", "desktop-legacy", "opengl", "wayland", "x11"},
		Parts: map[string]project.Part{
			"kde-neon/sdk": {
				Plugin: "nil",
				Source: "https://invent.kde.org/packaging/snap-kf5-launcher.git",
			},
		},
	},
	"flutter-stable": {
		Name:  "flutter-stable",
		Bases: []string{"core18"},
		Plugs: []string{"desktop", "desktop-legacy", "gsettings", "opengl", "x11"},
		Parts: map[string]project.Part{
			"flutter-extension": {
				Plugin:    "nil",
				Source:    "https://github.com/flutter/flutter.git",
				SourceTag: "stable",
			},
		},
	},
	"ros2-humble": {
		Name:  "ros2-humble",
		Bases: []string{"core22"},
		Plugs: []string{"network", "network-bind"},
	},
	"env-injector": {
		Name:  "env-injector",
		Bases: []string{"core24"},
	},
}

// Names returns the registered extension names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Find returns the named extension.
func Find(name string) (Extension, error) {
	ext, ok := registry[name]
	if !ok {
		return Extension{}, fmt.Errorf("extension %q does not exist", name)
	}
	return ext, nil
}

// RenderList writes a table of extensions and their supported bases.
func RenderList(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Extension name", "Supported bases"})
	for _, name := range Names() {
		ext := registry[name]
		bases := append([]string(nil), ext.Bases...)
		sort.Strings(bases)
		t.AppendRow(table.Row{name, strings.Join(bases, ", ")})
	}
	t.Render()
}

// Expand applies every extension selected by the project's apps,
// returning a manifest with the extension fields resolved away.
func Expand(p *project.Project) (*project.Project, error) {
	out := *p
	out.Apps = make(map[string]project.App, len(p.Apps))
	out.Parts = make(map[string]project.Part, len(p.Parts))
	for name, part := range p.Parts {
		out.Parts[name] = part
	}

	for appName, app := range p.Apps {
		expanded := app
		for _, extName := range app.Extensions {
			ext, err := Find(extName)
			if err != nil {
				return nil, err
			}
			if !ext.SupportsBase(p.Base) {
				return nil, fmt.Errorf("extension %q does not support base %q", extName, p.Base)
			}
			expanded.Plugs = mergePlugs(expanded.Plugs, ext.Plugs)
			for partName, part := range ext.Parts {
				if _, exists := out.Parts[partName]; !exists {
					out.Parts[partName] = part
				}
			}
		}
		expanded.Extensions = nil
		out.Apps[appName] = expanded
	}
	return &out, nil
}

// mergePlugs appends extra plugs, skipping ones already present.
func mergePlugs(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p] = true
	}
	merged := append([]string(nil), existing...)
	for _, p := range extra {
		if !seen[p] {
			merged = append(merged, p)
			seen[p] = true
		}
	}
	return merged
}
