// Package derive implements the pure filter/sort/search pipeline that
// turns a folder's raw entries into the displayed sequence.
package derive

import (
	"sort"
	"strings"

	"driveview/internal/model"
)

// Filter narrows the displayed set by entry kind, or by favorite
// membership for FilterFavorites.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterFavorites Filter = "favorites"
)

// ParseFilter maps a URL value to a Filter. Unknown values fall back to
// FilterAll; the second return reports whether the input was recognized.
func ParseFilter(s string) (Filter, bool) {
	if s == "" || s == string(FilterAll) {
		return FilterAll, true
	}
	if s == string(FilterFavorites) {
		return FilterFavorites, true
	}
	if _, ok := model.ParseKind(s); ok {
		return Filter(s), true
	}
	return FilterAll, false
}

// SortKey selects the comparison used when ordering displayed entries.
type SortKey int

const (
	SortName SortKey = iota
	SortDate
	SortSize
	SortTimeline // newest first, clustered into month buckets
)

// Sort is a sort key plus direction. Timeline ignores Desc.
type Sort struct {
	Key  SortKey
	Desc bool
}

// DefaultSort is ascending by name.
var DefaultSort = Sort{Key: SortName}

// String returns the URL form, e.g. "name-asc", "date-desc", "timeline".
func (s Sort) String() string {
	if s.Key == SortTimeline {
		return "timeline"
	}
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	switch s.Key {
	case SortDate:
		return "date-" + dir
	case SortSize:
		return "size-" + dir
	default:
		return "name-" + dir
	}
}

// ParseSort is the inverse of Sort.String. Unknown values fall back to
// DefaultSort; the second return reports whether the input was recognized.
func ParseSort(s string) (Sort, bool) {
	if s == "" {
		return DefaultSort, true
	}
	if s == "timeline" {
		return Sort{Key: SortTimeline}, true
	}
	key, dir, ok := strings.Cut(s, "-")
	if !ok || (dir != "asc" && dir != "desc") {
		return DefaultSort, false
	}
	desc := dir == "desc"
	switch key {
	case "name":
		return Sort{Key: SortName, Desc: desc}, true
	case "date":
		return Sort{Key: SortDate, Desc: desc}, true
	case "size":
		return Sort{Key: SortSize, Desc: desc}, true
	default:
		return DefaultSort, false
	}
}

// ViewState is the serializable view configuration reflected in the
// shareable location. The zero value is the default view.
type ViewState struct {
	Search     string
	Filter     Filter
	Sort       Sort
	OpenItemID string // entry id open in the media viewer, "" = none
	ViewMode   string // "" (grid) or "list" with per-row details
}

// DefaultView returns the default ViewState.
func DefaultView() ViewState {
	return ViewState{Filter: FilterAll, Sort: DefaultSort}
}

// IsDefault reports whether every field equals its default, in which case
// the encoded location omits all view parameters.
func (v ViewState) IsDefault() bool {
	return v.Search == "" &&
		(v.Filter == "" || v.Filter == FilterAll) &&
		v.Sort == DefaultSort &&
		v.OpenItemID == "" &&
		v.ViewMode == ""
}

// Aux carries the auxiliary predicates supplied by external collaborators.
// Nil functions and an empty Attribution mean "not active".
type Aux struct {
	Hidden      func(id string) bool     // curation hidden set, applied first
	Favorite    func(id string) bool     // favorites membership
	Tags        func(id string) []string // per-entry tag sets for search
	Attribution string                   // owner tag equality filter
}

// Group is one month bucket of a grouped-by-time view. Buckets are
// ordered newest first.
type Group struct {
	Key     string // "2006-01"
	Label   string // "January 2006"
	Entries []model.Entry
}

// Result is what the pipeline emits for rendering.
type Result struct {
	Displayed []model.Entry
	MediaOnly []model.Entry // image/video subsequence of Displayed
	Groups    []Group       // non-nil only for timeline sort
}

// Derive computes the displayed sequence from raw entries. It is pure:
// identical inputs produce identical output ordering, and the input slice
// is never mutated. Predicates apply in fixed order: hidden set, kind or
// favorites filter, attribution equality, free-text search, then sort.
func Derive(entries []model.Entry, view ViewState, aux Aux) Result {
	list := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if aux.Hidden != nil && aux.Hidden(e.ID) {
			continue
		}
		if !matchFilter(e, view.Filter, aux) {
			continue
		}
		if aux.Attribution != "" && e.OwnerTag != aux.Attribution {
			continue
		}
		if !matchSearch(e, view.Search, aux) {
			continue
		}
		list = append(list, e)
	}

	sortEntries(list, view.Sort)

	res := Result{Displayed: list}
	for _, e := range list {
		if e.IsMedia() {
			res.MediaOnly = append(res.MediaOnly, e)
		}
	}
	if view.Sort.Key == SortTimeline {
		res.Groups = groupByMonth(list)
	}
	return res
}

func matchFilter(e model.Entry, f Filter, aux Aux) bool {
	switch f {
	case "", FilterAll:
		return true
	case FilterFavorites:
		return aux.Favorite != nil && aux.Favorite(e.ID)
	default:
		return e.Kind().String() == string(f)
	}
}

// matchSearch matches by case-insensitive substring containment against
// the name and, when a tag provider is active, the entry's tag set.
func matchSearch(e model.Entry, query string, aux Aux) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(e.Name), q) {
		return true
	}
	if aux.Tags != nil {
		for _, tag := range aux.Tags(e.ID) {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}
	}
	return false
}

// sortEntries orders list in place. The sort is stable so that entries
// with equal keys keep the original listing order.
func sortEntries(list []model.Entry, s Sort) {
	switch s.Key {
	case SortTimeline:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].ModifiedAt.After(list[j].ModifiedAt)
		})
	case SortDate:
		sort.SliceStable(list, func(i, j int) bool {
			if s.Desc {
				return list[i].ModifiedAt.After(list[j].ModifiedAt)
			}
			return list[i].ModifiedAt.Before(list[j].ModifiedAt)
		})
	case SortSize:
		// Missing sizes compare as zero.
		sort.SliceStable(list, func(i, j int) bool {
			if s.Desc {
				return list[i].Size > list[j].Size
			}
			return list[i].Size < list[j].Size
		})
	default:
		sort.SliceStable(list, func(i, j int) bool {
			a := strings.ToLower(list[i].Name)
			b := strings.ToLower(list[j].Name)
			if s.Desc {
				return a > b
			}
			return a < b
		})
	}
}

// groupByMonth clusters an already newest-first list into month buckets.
// Entries without a timestamp are skipped, as in a flat date sort they
// would have no bucket to live in.
func groupByMonth(list []model.Entry) []Group {
	var groups []Group
	idx := make(map[string]int)
	for _, e := range list {
		key := e.MonthKey()
		if key == "" {
			continue
		}
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, Group{Key: key, Label: e.MonthLabel()})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	// Input is newest-first, so first appearance order is already
	// newest bucket first.
	return groups
}

// MonthGroups orders entries newest-first and clusters them into month
// buckets, for callers outside the pipeline such as exports.
func MonthGroups(entries []model.Entry) []Group {
	list := append([]model.Entry(nil), entries...)
	sortEntries(list, Sort{Key: SortTimeline})
	return groupByMonth(list)
}

// Stats are the kind tallies shown alongside the count label.
type Stats struct {
	Total      int
	Images     int
	Videos     int
	Folders    int
	TotalBytes int64
}

// Tally computes stats over the raw entry set.
func Tally(entries []model.Entry) Stats {
	var st Stats
	st.Total = len(entries)
	for _, e := range entries {
		switch e.Kind() {
		case model.KindImage:
			st.Images++
		case model.KindVideo:
			st.Videos++
		case model.KindFolder:
			st.Folders++
		}
		st.TotalBytes += e.Size
	}
	return st
}
