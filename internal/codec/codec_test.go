package codec

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/DubyaFM/quartermaster/internal/document"
	"github.com/DubyaFM/quartermaster/internal/event"
	logpkg "github.com/DubyaFM/quartermaster/pkg/log"
)

func newTestCodec() *Codec { return New(logpkg.NewTestLogger()) }

func sampleEvents() []event.Event {
	bal := 1200
	mk := func(i int, typ event.Type, meta event.Metadata) event.Event {
		return event.Event{
			ID:          "0000018f000000000000000000000" + string(rune('a'+i)),
			CampaignID:  "greyfane",
			Timestamp:   1700000000000 + int64(i),
			GameDate:    "1492-03-11",
			Type:        typ,
			ActorType:   event.ActorGM,
			ActorName:   "Mira the Keeper",
			Description: "Something happened in the city of Greyfane",
			Metadata:    meta,
		}
	}
	return []event.Event{
		mk(0, event.TypeShopTransaction, &event.ShopTransaction{
			Transaction: "purchase",
			ShopID:      "shop-7",
			ShopName:    "The Gilded Flagon",
			TotalCost:   150,
			Player:      "Wren",
			Items: []event.TransactionItem{
				{Name: "Healing Potion", Quantity: 2, Price: 50},
				{Name: "Rope (50 ft)", Quantity: 1, Price: 1},
			},
		}),
		mk(1, event.TypeShopCreated, &event.ShopCreated{ShopID: "shop-7", ShopName: "The Gilded Flagon", ShopType: "tavern", Location: "Dock Ward"}),
		mk(2, event.TypeShopRestocked, &event.ShopRestocked{ShopID: "shop-7", ShopName: "The Gilded Flagon", ItemsAdded: 4, ItemsRemoved: 2}),
		mk(3, event.TypeProjectStarted, &event.ProjectStarted{ProjectID: "proj-1", ProjectName: "Forge a Greatsword", Owner: "Bramble", GoalHours: 40}),
		mk(4, event.TypeProjectProgress, &event.ProjectProgress{ProjectID: "proj-1", ProjectName: "Forge a Greatsword", HoursSpent: 8, TotalHours: 16, Note: "good steel"}),
		mk(5, event.TypeProjectCompleted, &event.ProjectCompleted{ProjectID: "proj-1", ProjectName: "Forge a Greatsword", TotalHours: 40, Outcome: "masterwork"}),
		mk(6, event.TypeProjectFailed, &event.ProjectFailed{ProjectID: "proj-2", ProjectName: "Brew Midnight Oil", Reason: "still exploded"}),
		mk(7, event.TypeStrongholdOrderGiven, &event.StrongholdOrderGiven{StrongholdID: "sh-1", StrongholdName: "Ravenwatch Keep", Order: "recruit guards", IssuedBy: "Wren", DueGameDate: "1492-04-01"}),
		mk(8, event.TypeStrongholdOrderCompleted, &event.StrongholdOrderCompleted{StrongholdID: "sh-1", StrongholdName: "Ravenwatch Keep", Order: "recruit guards", Result: "6 hired"}),
		mk(9, event.TypeTimeAdvanced, &event.TimeAdvanced{Days: 10, FromDate: "1492-03-01", ToDate: "1492-03-11"}),
		mk(10, event.TypeFundsAdjusted, &event.FundsAdjusted{Amount: -200, Currency: "gp", Reason: "bribes", Balance: &bal}),
		mk(11, event.TypeItemAdded, &event.ItemAdded{ItemName: "Healing Potion", Quantity: 2, Owner: "party", Source: "loot"}),
		mk(12, event.TypeItemRemoved, &event.ItemRemoved{ItemName: "Healing Potion", Quantity: 1, Owner: "party", Reason: "consumed"}),
		mk(13, event.TypeCustomNote, &event.CustomNote{Title: "Downtime", Content: "The party slept in.\nNobody noticed the theft.", Tags: []string{"downtime", "theft"}}),
	}
}

func TestRoundTripEveryVariant(t *testing.T) {
	c := newTestCodec()
	for _, want := range sampleEvents() {
		want.Notes = "remember to follow up"
		want.NotesLastUpdated = 1700000099000
		block, err := c.Encode(want)
		if err != nil {
			t.Fatalf("encode %s: %v", want.Type, err)
		}
		got, err := c.Decode(block)
		if err != nil {
			t.Fatalf("decode %s: %v", want.Type, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch for %s:\n got %#v\nwant %#v", want.Type, got, want)
		}
	}
}

func TestRoundTripMinimalEnvelope(t *testing.T) {
	c := newTestCodec()
	want := event.Event{
		ID:          "abc123abc123abc123abc123abc123ab",
		CampaignID:  "greyfane",
		Timestamp:   0,
		Type:        event.TypeCustomNote,
		ActorType:   event.ActorSystem,
		Description: "",
		Metadata:    &event.CustomNote{Content: "x"},
	}
	block, err := c.Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(block)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestDelimiterSafePayloads(t *testing.T) {
	c := newTestCodec()
	want := sampleEvents()[13]
	want.Metadata = &event.CustomNote{Content: "before\n---\nafter"}
	want.Notes = "also\n---\nhere"
	block, err := c.Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) == "---" {
			t.Fatalf("encoded block contains a bare delimiter line:\n%s", block)
		}
	}
	got, err := c.Decode(block)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Notes != want.Notes {
		t.Fatalf("notes mismatch: %q", got.Notes)
	}
	if got.Metadata.(*event.CustomNote).Content != "before\n---\nafter" {
		t.Fatalf("content mismatch: %q", got.Metadata.(*event.CustomNote).Content)
	}
}

func TestEscapedEnvelopeText(t *testing.T) {
	c := newTestCodec()
	want := sampleEvents()[13]
	want.Description = "spaces & ampersands & more   spaces"
	want.ActorName = "Mira & Wren"
	want.GameDate = "11th of Ches, 1492 DR"
	block, err := c.Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(block)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Description != want.Description || got.ActorName != want.ActorName || got.GameDate != want.GameDate {
		t.Fatalf("escape round trip failed: %#v", got)
	}
}

func TestDecodeMissingMarker(t *testing.T) {
	c := newTestCodec()
	_, err := c.Decode("## Custom Note @ Mar 11, 2026\n\n**Actor:** gm\n")
	if !errors.Is(err, ErrMissingMetadata) {
		t.Fatalf("want ErrMissingMetadata, got %v", err)
	}
}

func TestDecodeMissingRequiredField(t *testing.T) {
	c := newTestCodec()
	block := "## X @ now\n<!-- id: a type: custom_note timestamp: 5 metadata: e30 -->\n"
	_, err := c.Decode(block) // no campaignId
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("want ErrMissingField, got %v", err)
	}
}

func TestDecodeBadTimestamp(t *testing.T) {
	c := newTestCodec()
	for _, ts := range []string{"soon", "-5", "1.5"} {
		block := "## X @ now\n<!-- id: a type: custom_note campaignId: c timestamp: " + ts + " actorType: gm description: d metadata: e30 -->\n"
		if _, err := c.Decode(block); !errors.Is(err, ErrBadTimestamp) {
			t.Fatalf("timestamp %q: want ErrBadTimestamp, got %v", ts, err)
		}
	}
}

func TestDecodeUnknownActorTypeDefaultsToSystem(t *testing.T) {
	c := newTestCodec()
	block := "## X @ now\n<!-- id: a type: custom_note campaignId: c timestamp: 5 actorType: dragon description: d metadata: " + encodePayload(`{"content":"x"}`) + " -->\n"
	got, err := c.Decode(block)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ActorType != event.ActorSystem {
		t.Fatalf("ActorType = %s, want system", got.ActorType)
	}
}

func TestDecodeUnknownTypeFallsBackToCustomNote(t *testing.T) {
	c := newTestCodec()
	payload := `{"phase":"full"}`
	block := "## X @ now\n<!-- id: a type: moon_phase_changed campaignId: c timestamp: 5 actorType: gm description: d metadata: " + encodePayload(payload) + " -->\n"
	got, err := c.Decode(block)
	if err != nil {
		t.Fatalf("fallback should parse, got %v", err)
	}
	if got.Type != event.TypeCustomNote {
		t.Fatalf("Type = %s, want custom_note", got.Type)
	}
	note, ok := got.Metadata.(*event.CustomNote)
	if !ok || note.Content != payload {
		t.Fatalf("fallback metadata = %#v", got.Metadata)
	}
}

func TestDecodeMismatchedPayloadShape(t *testing.T) {
	c := newTestCodec()
	block := "## X @ now\n<!-- id: a type: time_advanced campaignId: c timestamp: 5 actorType: gm description: d metadata: " + encodePayload(`{"shopName":"The Gilded Flagon"}`) + " -->\n"
	if _, err := c.Decode(block); err == nil {
		t.Fatalf("expected shape mismatch to be a block error")
	}
}

func TestEncodeRejectsTypeMetadataMismatch(t *testing.T) {
	c := newTestCodec()
	ev := sampleEvents()[0]
	ev.Type = event.TypeTimeAdvanced
	if _, err := c.Encode(ev); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestHeaderRendering(t *testing.T) {
	c := newTestCodec()
	ev := sampleEvents()[10]
	block, err := c.Encode(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	first := strings.SplitN(block, "\n", 2)[0]
	if !strings.HasPrefix(first, "## Funds Adjusted (1492-03-11) @ ") {
		t.Fatalf("header = %q", first)
	}
}

func TestMetadataMarkerTextRoundTrips(t *testing.T) {
	c := newTestCodec()
	want := sampleEvents()[13]
	want.Description = "see-->here"
	want.ActorName = "Mira <!--the--> Keeper"
	want.GameDate = "x-->y"
	block, err := c.Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, line := range strings.Split(block, "\n") {
		if !strings.HasPrefix(line, MetaOpen) {
			continue
		}
		if !strings.HasSuffix(line, MetaClose) || strings.Count(line, MetaClose) != 1 {
			t.Fatalf("metadata line closes early: %q", line)
		}
	}
	got, err := c.Decode(block)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Description != want.Description || got.ActorName != want.ActorName || got.GameDate != want.GameDate {
		t.Fatalf("marker round trip failed: %#v", got)
	}
}

func TestBodyDelimiterLineCannotSplitBlock(t *testing.T) {
	c := newTestCodec()
	want := sampleEvents()[1]
	want.Description = "New tavern\n---\nopens at the docks"
	want.Metadata = &event.ShopCreated{ShopID: "shop-8", ShopName: "The Broken Oar", Location: "Dock Ward\n---\nLower Stair"}
	block, err := c.Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	blocks := document.Split(document.Assemble([]string{block}))
	if len(blocks) != 1 {
		t.Fatalf("block split into %d pieces", len(blocks))
	}
	got, err := c.Decode(blocks[0].Text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Description != want.Description {
		t.Fatalf("description mismatch: %q", got.Description)
	}
	if got.Metadata.(*event.ShopCreated).Location != "Dock Ward\n---\nLower Stair" {
		t.Fatalf("location mismatch: %#v", got.Metadata)
	}
}
