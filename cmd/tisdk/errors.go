package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/config"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/sdkerr"
)

// formatError renders err for the terminal. Classified errors carry their
// kind and details; config errors use the friendly parser message.
func formatError(err error, verbose bool) string {
	var parseErr *config.ParseError
	if errors.As(err, &parseErr) {
		return "Error: " + config.FormatError(err, verbose)
	}

	var e *sdkerr.Error
	if !errors.As(err, &e) {
		return "Error: " + err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error (%s): %s", e.Kind, e.Error())

	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, formatDetail(e.Details[k]))
	}
	return b.String()
}

func formatDetail(v any) string {
	switch v := v.(type) {
	case []string:
		if len(v) == 0 {
			return "(none)"
		}
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(v)
	}
}
