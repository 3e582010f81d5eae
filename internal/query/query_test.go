package query

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/DubyaFM/quartermaster/internal/event"
)

func i64(v int64) *int64 { return &v }

func fixture() []event.Event {
	return []event.Event{
		{ID: "a", CampaignID: "greyfane", Timestamp: 100, GameDate: "1492-03-01", Type: event.TypeFundsAdjusted, ActorType: event.ActorGM, ActorName: "Mira", Description: "Paid the harbormaster", Metadata: &event.FundsAdjusted{Amount: -20, Currency: "gp"}},
		{ID: "b", CampaignID: "greyfane", Timestamp: 300, GameDate: "1492-03-05", Type: event.TypeItemAdded, ActorType: event.ActorPlayer, ActorName: "Wren", Description: "Looted a ruby", Metadata: &event.ItemAdded{ItemName: "Ruby", Quantity: 1}},
		{ID: "c", CampaignID: "greyfane", Timestamp: 200, GameDate: "1492-03-03", Type: event.TypeCustomNote, ActorType: event.ActorSystem, Description: "Session note", Metadata: &event.CustomNote{Content: "the HARBORMASTER was furious"}},
		{ID: "d", CampaignID: "ashvale", Timestamp: 250, GameDate: "0202-01-01", Type: event.TypeFundsAdjusted, ActorType: event.ActorGM, ActorName: "Odo", Description: "Tax collected", Metadata: &event.FundsAdjusted{Amount: 5, Currency: "sp"}},
		{ID: "e", CampaignID: "greyfane", Timestamp: 200, GameDate: "1492-03-03", Type: event.TypeCustomNote, ActorType: event.ActorGM, ActorName: "Mira", Description: "Tie breaker entry", Metadata: &event.CustomNote{Content: "second at ts 200"}},
	}
}

func ids(evs []event.Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.ID
	}
	return out
}

func TestDefaultSortDescending(t *testing.T) {
	res, err := Run(fixture(), Query{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// c precedes e at ts=200 because the sort is stable over input order.
	want := []string{"b", "d", "c", "e", "a"}
	if !reflect.DeepEqual(ids(res.Events), want) {
		t.Fatalf("order = %v, want %v", ids(res.Events), want)
	}
	if res.Total != 5 || res.HasMore {
		t.Fatalf("total=%d hasMore=%v", res.Total, res.HasMore)
	}
}

func TestSortAscending(t *testing.T) {
	res, err := Run(fixture(), Query{SortOrder: SortAsc})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"a", "c", "e", "d", "b"}
	if !reflect.DeepEqual(ids(res.Events), want) {
		t.Fatalf("order = %v, want %v", ids(res.Events), want)
	}
}

func TestFiltersAreConjunctive(t *testing.T) {
	qA := Query{CampaignID: "greyfane"}
	qB := Query{EventTypes: []event.Type{event.TypeFundsAdjusted}}
	both := Query{CampaignID: "greyfane", EventTypes: []event.Type{event.TypeFundsAdjusted}}

	resA, _ := Run(fixture(), qA)
	resB, _ := Run(fixture(), qB)
	resBoth, _ := Run(fixture(), both)

	inA := map[string]bool{}
	for _, id := range ids(resA.Events) {
		inA[id] = true
	}
	var intersection []string
	for _, id := range ids(resB.Events) {
		if inA[id] {
			intersection = append(intersection, id)
		}
	}
	if !reflect.DeepEqual(ids(resBoth.Events), intersection) {
		t.Fatalf("AND result %v != intersection %v", ids(resBoth.Events), intersection)
	}
	if len(resBoth.Events) != 1 || resBoth.Events[0].ID != "a" {
		t.Fatalf("unexpected conjunction result: %v", ids(resBoth.Events))
	}
}

func TestActorNameSubstringCaseInsensitive(t *testing.T) {
	res, _ := Run(fixture(), Query{ActorNames: []string{"mIr"}})
	// "c" has no actor name and is excluded; only Mira's events match.
	if !reflect.DeepEqual(ids(res.Events), []string{"e", "a"}) {
		t.Fatalf("order = %v", ids(res.Events))
	}
}

func TestTimestampRange(t *testing.T) {
	res, _ := Run(fixture(), Query{StartDate: i64(200), EndDate: i64(300)})
	if res.Total != 4 {
		t.Fatalf("total = %d, want 4", res.Total)
	}
	for _, ev := range res.Events {
		if ev.Timestamp < 200 || ev.Timestamp > 300 {
			t.Fatalf("event %s out of range: %d", ev.ID, ev.Timestamp)
		}
	}
}

func TestGameDateRangeLexicographic(t *testing.T) {
	res, _ := Run(fixture(), Query{GameStartDate: "1492-03-02", GameEndDate: "1492-03-31"})
	got := ids(res.Events)
	if !reflect.DeepEqual(got, []string{"b", "c", "e"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestSearchDescriptionAndNoteContent(t *testing.T) {
	res, _ := Run(fixture(), Query{SearchText: "harbormaster"})
	got := ids(res.Events)
	// "a" matches on description, "c" on custom-note content despite casing.
	if !reflect.DeepEqual(got, []string{"c", "a"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestSearchEquivalence(t *testing.T) {
	viaRun, _ := Run(fixture(), Query{SearchText: "harbormaster", Limit: 1, Offset: 1})
	viaSearch, _ := Search(fixture(), "harbormaster", Query{Limit: 1, Offset: 1})
	if !reflect.DeepEqual(viaRun, viaSearch) {
		t.Fatalf("Search != Run:\n%#v\n%#v", viaSearch, viaRun)
	}
}

func TestPaginationMath(t *testing.T) {
	events := make([]event.Event, 100)
	for i := range events {
		events[i] = event.Event{ID: fmt.Sprintf("ev-%03d", i), CampaignID: "c", Timestamp: int64(i), Type: event.TypeCustomNote, ActorType: event.ActorSystem, Metadata: &event.CustomNote{}}
	}
	cases := []struct {
		offset  int
		wantLen int
		hasMore bool
	}{
		{0, 50, true},
		{50, 50, false},
		{100, 0, false},
	}
	for _, tc := range cases {
		res, err := Run(events, Query{Limit: 50, Offset: tc.offset})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(res.Events) != tc.wantLen || res.HasMore != tc.hasMore || res.Total != 100 {
			t.Fatalf("offset %d: len=%d hasMore=%v total=%d", tc.offset, len(res.Events), res.HasMore, res.Total)
		}
	}
}

func TestLimitDefaultsToAllRemaining(t *testing.T) {
	res, _ := Run(fixture(), Query{Offset: 2})
	if len(res.Events) != 3 || res.HasMore {
		t.Fatalf("len=%d hasMore=%v", len(res.Events), res.HasMore)
	}
}

func TestCELFilterExpr(t *testing.T) {
	res, err := Run(fixture(), Query{FilterExpr: `event_type == "funds_adjusted" && ts_ms < 150`})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(ids(res.Events), []string{"a"}) {
		t.Fatalf("order = %v", ids(res.Events))
	}
}

func TestCELFilterBadExpression(t *testing.T) {
	if _, err := Run(fixture(), Query{FilterExpr: `ts_ms &&& 3`}); err == nil {
		t.Fatalf("expected compile error")
	}
	// Non-boolean expressions compile but never match.
	res, err := Run(fixture(), Query{FilterExpr: `ts_ms + 1`})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Total != 0 {
		t.Fatalf("non-boolean filter matched %d events", res.Total)
	}
}

func TestInputSliceUntouched(t *testing.T) {
	events := fixture()
	before := ids(events)
	if _, err := Run(events, Query{SortOrder: SortAsc}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(ids(events), before) {
		t.Fatalf("input mutated: %v", ids(events))
	}
}
