// Package query is the pure in-memory pipeline over cached events:
// filter, then sort, then paginate. It never touches storage.
//
// Every text predicate (actor-name substring, free-text search) compares
// case-insensitively; that is a documented contract, not an accident.
package query

import (
	"sort"
	"strings"

	"github.com/DubyaFM/quartermaster/internal/event"
)

// SortOrder selects timestamp ordering.
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// Query describes one read. Zero values mean "no constraint"; timestamps use
// pointers because 0 is a legal bound.
type Query struct {
	CampaignID string
	EventTypes []event.Type
	ActorTypes []event.ActorType

	// ActorNames matches events whose actor name contains any listed
	// substring. Events without an actor name never match.
	ActorNames []string

	StartDate *int64 // timestamp >= StartDate
	EndDate   *int64 // timestamp <= EndDate

	// Game-date bounds compare lexicographically; the caller owns choosing a
	// sortable representation.
	GameStartDate string
	GameEndDate   string

	// SearchText matches against the description, and for custom notes also
	// against the note content.
	SearchText string

	// FilterExpr is an optional CEL predicate over the envelope, ANDed with
	// the structural filters above. Available variables: id, campaign_id,
	// event_type, actor_type, actor_name, description, notes, game_date,
	// ts_ms, now_ms.
	FilterExpr string

	SortOrder SortOrder // default SortDesc
	Offset    int
	Limit     int // <= 0 means "all remaining"
}

// Result is one page of matches.
type Result struct {
	Events  []event.Event
	Total   int // matches before pagination
	HasMore bool
	Offset  int
	Limit   int
}

// Run executes q against events. The input order is preserved for timestamp
// ties (the sort is stable); the input slice is not modified.
func Run(events []event.Event, q Query) (Result, error) {
	flt, err := newCELFilter(q.FilterExpr)
	if err != nil {
		return Result{}, err
	}

	matched := make([]event.Event, 0, len(events))
	for _, ev := range events {
		if q.matches(ev) && flt.Eval(ev) {
			matched = append(matched, ev)
		}
	}

	asc := q.SortOrder == SortAsc
	sort.SliceStable(matched, func(i, j int) bool {
		if asc {
			return matched[i].Timestamp < matched[j].Timestamp
		}
		return matched[i].Timestamp > matched[j].Timestamp
	})

	total := len(matched)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	limit := q.Limit
	if limit <= 0 {
		limit = total - offset
		if limit < 0 {
			limit = 0
		}
	}

	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return Result{
		Events:  matched[start:end],
		Total:   total,
		HasMore: offset+limit < total,
		Offset:  offset,
		Limit:   limit,
	}, nil
}

// Search is Run with the search text pre-populated. It exists for caller
// ergonomics and returns exactly what Run would with the same SearchText.
func Search(events []event.Event, text string, q Query) (Result, error) {
	q.SearchText = text
	return Run(events, q)
}

func (q Query) matches(ev event.Event) bool {
	if q.CampaignID != "" && ev.CampaignID != q.CampaignID {
		return false
	}
	if len(q.EventTypes) > 0 && !containsType(q.EventTypes, ev.Type) {
		return false
	}
	if len(q.ActorTypes) > 0 && !containsActor(q.ActorTypes, ev.ActorType) {
		return false
	}
	if len(q.ActorNames) > 0 {
		if ev.ActorName == "" {
			return false
		}
		name := strings.ToLower(ev.ActorName)
		found := false
		for _, want := range q.ActorNames {
			if strings.Contains(name, strings.ToLower(want)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.StartDate != nil && ev.Timestamp < *q.StartDate {
		return false
	}
	if q.EndDate != nil && ev.Timestamp > *q.EndDate {
		return false
	}
	if q.GameStartDate != "" && ev.GameDate < q.GameStartDate {
		return false
	}
	if q.GameEndDate != "" && ev.GameDate > q.GameEndDate {
		return false
	}
	if q.SearchText != "" && !matchesText(ev, q.SearchText) {
		return false
	}
	return true
}

func matchesText(ev event.Event, text string) bool {
	needle := strings.ToLower(text)
	if strings.Contains(strings.ToLower(ev.Description), needle) {
		return true
	}
	if note, ok := ev.Metadata.(*event.CustomNote); ok && ev.Type == event.TypeCustomNote {
		if strings.Contains(strings.ToLower(note.Content), needle) {
			return true
		}
	}
	return false
}

func containsType(set []event.Type, t event.Type) bool {
	for _, v := range set {
		if v == t {
			return true
		}
	}
	return false
}

func containsActor(set []event.ActorType, a event.ActorType) bool {
	for _, v := range set {
		if v == a {
			return true
		}
	}
	return false
}
