package event

import "strings"

// Type discriminates the metadata payload carried by an event. The set is
// closed; decode falls back to TypeCustomNote for unrecognized values so old
// engines can still load logs written by newer ones.
type Type string

const (
	TypeShopTransaction          Type = "shop_transaction"
	TypeShopCreated              Type = "shop_created"
	TypeShopRestocked            Type = "shop_restocked"
	TypeProjectStarted           Type = "project_started"
	TypeProjectProgress          Type = "project_progress"
	TypeProjectCompleted         Type = "project_completed"
	TypeProjectFailed            Type = "project_failed"
	TypeStrongholdOrderGiven     Type = "stronghold_order_given"
	TypeStrongholdOrderCompleted Type = "stronghold_order_completed"
	TypeTimeAdvanced             Type = "time_advanced"
	TypeFundsAdjusted            Type = "funds_adjusted"
	TypeItemAdded                Type = "item_added"
	TypeItemRemoved              Type = "item_removed"
	TypeCustomNote               Type = "custom_note"
)

// Types lists every known event type in declaration order.
func Types() []Type {
	return []Type{
		TypeShopTransaction,
		TypeShopCreated,
		TypeShopRestocked,
		TypeProjectStarted,
		TypeProjectProgress,
		TypeProjectCompleted,
		TypeProjectFailed,
		TypeStrongholdOrderGiven,
		TypeStrongholdOrderCompleted,
		TypeTimeAdvanced,
		TypeFundsAdjusted,
		TypeItemAdded,
		TypeItemRemoved,
		TypeCustomNote,
	}
}

// Valid reports whether t is a member of the closed enumeration.
func (t Type) Valid() bool {
	switch t {
	case TypeShopTransaction, TypeShopCreated, TypeShopRestocked,
		TypeProjectStarted, TypeProjectProgress, TypeProjectCompleted, TypeProjectFailed,
		TypeStrongholdOrderGiven, TypeStrongholdOrderCompleted,
		TypeTimeAdvanced, TypeFundsAdjusted, TypeItemAdded, TypeItemRemoved,
		TypeCustomNote:
		return true
	}
	return false
}

// Label returns the fixed title-case phrase rendered in entry headers.
// Unknown values get a generic title-cased transform of the raw token so
// rendering never fails.
func (t Type) Label() string {
	switch t {
	case TypeShopTransaction:
		return "Shop Transaction"
	case TypeShopCreated:
		return "Shop Created"
	case TypeShopRestocked:
		return "Shop Restocked"
	case TypeProjectStarted:
		return "Project Started"
	case TypeProjectProgress:
		return "Project Progress"
	case TypeProjectCompleted:
		return "Project Completed"
	case TypeProjectFailed:
		return "Project Failed"
	case TypeStrongholdOrderGiven:
		return "Stronghold Order Given"
	case TypeStrongholdOrderCompleted:
		return "Stronghold Order Completed"
	case TypeTimeAdvanced:
		return "Time Advanced"
	case TypeFundsAdjusted:
		return "Funds Adjusted"
	case TypeItemAdded:
		return "Item Added"
	case TypeItemRemoved:
		return "Item Removed"
	case TypeCustomNote:
		return "Custom Note"
	}
	return titleCase(string(t))
}

func titleCase(raw string) string {
	words := strings.FieldsFunc(raw, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ActorType identifies who caused an event.
type ActorType string

const (
	ActorPlayer ActorType = "player"
	ActorGM     ActorType = "gm"
	ActorSystem ActorType = "system"
)

// Valid reports whether a is a member of the closed actor set.
func (a ActorType) Valid() bool {
	switch a {
	case ActorPlayer, ActorGM, ActorSystem:
		return true
	}
	return false
}

// Event is the envelope shared by every variant. Only Notes and
// NotesLastUpdated may change after creation.
type Event struct {
	ID          string
	CampaignID  string
	Timestamp   int64 // milliseconds since epoch, non-negative
	GameDate    string
	Type        Type
	ActorType   ActorType
	ActorName   string
	Description string
	Metadata    Metadata
	Notes       string
	NotesLastUpdated int64
}

// Actor returns the display name for the event's actor: the free-text name
// when present, otherwise the actor type.
func (e Event) Actor() string {
	if e.ActorName != "" {
		return e.ActorName
	}
	return string(e.ActorType)
}
