// Package templates holds the templ components of the web GUI.
package templates

//go:generate go tool templ generate

import (
	"sort"
	"strconv"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func passwordType(visible bool) string {
	if visible {
		return "text"
	}
	return "password"
}

func passwordAutocomplete(form string) string {
	if form == "signup" {
		return "new-password"
	}
	return "current-password"
}

func revealLabel(revealed bool) string {
	if revealed {
		return "Hide"
	}
	return "Show"
}

func dialogButtonClass(destructive bool) string {
	if destructive {
		return "danger"
	}
	return "primary"
}

// sortedKeys keeps hidden inputs in a stable order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
