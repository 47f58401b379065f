// Package link encodes and decodes the shareable gallery location: a
// query-string form of the open folder plus the ViewState, so that any
// view is a bookmarkable, back/forward-navigable address.
package link

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"driveview/internal/derive"
)

// ownedParams are the query keys this engine interprets. Anything else is
// a passthrough marker owned by an external collaborator (embed mode,
// lock hash, ...) and is preserved verbatim when re-encoding.
var ownedParams = map[string]bool{
	"folder": true,
	"filter": true,
	"sort":   true,
	"q":      true,
	"item":   true,
	"view":   true,
}

// Location is a decoded gallery address.
type Location struct {
	FolderID    string
	View        derive.ViewState
	Passthrough url.Values
}

// Encode serializes a Location to a query string (without leading "?").
// Fields equal to their defaults are omitted to keep links minimal.
// Owned parameters come first in fixed order; passthrough keys follow in
// sorted order so encoding is deterministic.
func Encode(loc Location) string {
	var b strings.Builder
	put := func(key, val string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(val))
	}
	// Owned parameters at their defaults are omitted entirely.
	add := func(key, val string) {
		if val == "" {
			return
		}
		put(key, val)
	}

	add("folder", loc.FolderID)
	if loc.View.Filter != "" && loc.View.Filter != derive.FilterAll {
		add("filter", string(loc.View.Filter))
	}
	if loc.View.Sort != derive.DefaultSort {
		add("sort", loc.View.Sort.String())
	}
	add("q", loc.View.Search)
	add("item", loc.View.OpenItemID)
	add("view", loc.View.ViewMode)

	keys := make([]string, 0, len(loc.Passthrough))
	for k := range loc.Passthrough {
		if !ownedParams[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range loc.Passthrough[k] {
			// Foreign parameters are preserved verbatim, empty values included.
			put(k, v)
		}
	}

	return b.String()
}

// Decode parses a location string back into a Location. It tolerates full
// URLs, a leading "?", and partial or malformed query data: unknown
// filter and sort values silently fall back to their defaults, and decode
// never fails.
func Decode(raw string) Location {
	query := raw
	if i := strings.IndexByte(query, '?'); i >= 0 {
		query = query[i+1:]
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		values = url.Values{}
	}

	view := derive.DefaultView()
	view.Filter, _ = derive.ParseFilter(values.Get("filter"))
	view.Sort, _ = derive.ParseSort(values.Get("sort"))
	view.Search = values.Get("q")
	view.OpenItemID = values.Get("item")
	if values.Get("view") == "list" {
		view.ViewMode = "list"
	}

	passthrough := url.Values{}
	for k, vs := range values {
		if !ownedParams[k] {
			passthrough[k] = vs
		}
	}

	return Location{
		FolderID:    values.Get("folder"),
		View:        view,
		Passthrough: passthrough,
	}
}

var folderURLPattern = regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`)
var bareIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{15,}$`)

// ExtractFolderID pulls a folder id out of user input: a share URL with a
// /folders/ path, a deep link with a folder parameter, or a bare id.
// Returns "" when nothing id-shaped is found.
func ExtractFolderID(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := folderURLPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if strings.ContainsRune(raw, '?') {
		if loc := Decode(raw); loc.FolderID != "" {
			return loc.FolderID
		}
	}
	if bareIDPattern.MatchString(raw) {
		return raw
	}
	return ""
}
