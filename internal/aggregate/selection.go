// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"errors"
	"fmt"
	"strings"
)

// Name identifies a source kind.
type Name string

const (
	GitHub     Name = "github"
	Confluence Name = "confluence"
	Jira       Name = "jira"
	Greenhouse Name = "greenhouse"
)

// allSources is the canonical order used for logging and history.
var allSources = [...]Name{GitHub, Confluence, Jira, Greenhouse}

// ErrUnknownSource is wrapped by ParseSources for names outside allSources.
var ErrUnknownSource = errors.New("unknown source")

// Selection is the set of sources a request asks for.
type Selection map[Name]bool

// All selects every source.
func All() Selection {
	sel := make(Selection, len(allSources))
	for _, n := range allSources {
		sel[n] = true
	}
	return sel
}

// ParseSources parses a comma-separated, case-insensitive list of source
// names. Blank entries are ignored and an empty list selects all sources.
func ParseSources(csv string) (Selection, error) {
	sel := make(Selection)
	for _, part := range strings.Split(csv, ",") {
		name := Name(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		if !known(name) {
			return nil, fmt.Errorf("%w %q: valid sources are %s", ErrUnknownSource, part, validNames())
		}
		sel[name] = true
	}
	if len(sel) == 0 {
		return All(), nil
	}
	return sel, nil
}

// Has reports whether n is selected.
func (s Selection) Has(n Name) bool { return s[n] }

// Len returns the number of selected sources.
func (s Selection) Len() int { return len(s) }

// Names lists the selected sources in canonical order.
func (s Selection) Names() []string {
	names := make([]string, 0, len(s))
	for _, n := range allSources {
		if s[n] {
			names = append(names, string(n))
		}
	}
	return names
}

func known(n Name) bool { return n.slot() >= 0 }

// slot returns the position of n in allSources, or -1.
func (n Name) slot() int {
	for i, k := range allSources {
		if k == n {
			return i
		}
	}
	return -1
}

func validNames() string {
	names := make([]string, len(allSources))
	for i, n := range allSources {
		names[i] = string(n)
	}
	return strings.Join(names, ", ")
}
