// Package lifecycle names the host events that drive the patch hooks.
package lifecycle

import (
	"fmt"
	"slices"
)

// Type is the host lifecycle event passed to preflight and postflight.
type Type string

const (
	Install   Type = "install"
	Update    Type = "update"
	Discover  Type = "discover_install"
	Uninstall Type = "uninstall"
)

// All lists every known lifecycle type.
var All = []Type{Install, Update, Discover, Uninstall}

// Parse converts s to a known Type.
func Parse(s string) (Type, error) {
	t := Type(s)
	if !slices.Contains(All, t) {
		return "", fmt.Errorf("unknown lifecycle type %q (valid: install, update, discover_install, uninstall)", s)
	}
	return t, nil
}

// ParseAll converts every entry of ss.
func ParseAll(ss []string) ([]Type, error) {
	out := make([]Type, 0, len(ss))
	for _, s := range ss {
		t, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
