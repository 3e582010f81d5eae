package event

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Metadata is the variant payload attached to an event. Exactly one shape is
// valid per Type; DecodeMetadata enforces the pairing.
type Metadata interface {
	EventType() Type
	validate() error
}

// TransactionItem is one line of an itemized shop transaction.
type TransactionItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
}

// ShopTransaction records a purchase or sale against a shop.
type ShopTransaction struct {
	Transaction string            `json:"transaction"` // "purchase" or "sale"
	ShopID      string            `json:"shopId"`
	ShopName    string            `json:"shopName"`
	TotalCost   int               `json:"totalCost"`
	Player      string            `json:"player,omitempty"`
	Items       []TransactionItem `json:"items,omitempty"`
}

func (m *ShopTransaction) EventType() Type { return TypeShopTransaction }
func (m *ShopTransaction) validate() error {
	if m.Transaction == "" || m.ShopName == "" {
		return fmt.Errorf("shop transaction needs transaction and shopName")
	}
	return nil
}

// ShopCreated records a new shop opening for business.
type ShopCreated struct {
	ShopID   string `json:"shopId"`
	ShopName string `json:"shopName"`
	ShopType string `json:"shopType,omitempty"`
	Location string `json:"location,omitempty"`
}

func (m *ShopCreated) EventType() Type { return TypeShopCreated }
func (m *ShopCreated) validate() error {
	if m.ShopName == "" {
		return fmt.Errorf("shop created needs shopName")
	}
	return nil
}

// ShopRestocked records an inventory refresh.
type ShopRestocked struct {
	ShopID       string `json:"shopId"`
	ShopName     string `json:"shopName"`
	ItemsAdded   int    `json:"itemsAdded"`
	ItemsRemoved int    `json:"itemsRemoved"`
}

func (m *ShopRestocked) EventType() Type { return TypeShopRestocked }
func (m *ShopRestocked) validate() error {
	if m.ShopName == "" {
		return fmt.Errorf("shop restocked needs shopName")
	}
	return nil
}

// ProjectStarted records a downtime project being kicked off.
type ProjectStarted struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	Owner       string `json:"owner,omitempty"`
	GoalHours   int    `json:"goalHours,omitempty"`
}

func (m *ProjectStarted) EventType() Type { return TypeProjectStarted }
func (m *ProjectStarted) validate() error {
	if m.ProjectName == "" {
		return fmt.Errorf("project started needs projectName")
	}
	return nil
}

// ProjectProgress records hours logged against a project.
type ProjectProgress struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	HoursSpent  int    `json:"hoursSpent"`
	TotalHours  int    `json:"totalHours,omitempty"`
	Note        string `json:"note,omitempty"`
}

func (m *ProjectProgress) EventType() Type { return TypeProjectProgress }
func (m *ProjectProgress) validate() error {
	if m.ProjectName == "" {
		return fmt.Errorf("project progress needs projectName")
	}
	return nil
}

// ProjectCompleted records a project finishing.
type ProjectCompleted struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	TotalHours  int    `json:"totalHours,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
}

func (m *ProjectCompleted) EventType() Type { return TypeProjectCompleted }
func (m *ProjectCompleted) validate() error {
	if m.ProjectName == "" {
		return fmt.Errorf("project completed needs projectName")
	}
	return nil
}

// ProjectFailed records a project being abandoned or failing.
type ProjectFailed struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	Reason      string `json:"reason,omitempty"`
}

func (m *ProjectFailed) EventType() Type { return TypeProjectFailed }
func (m *ProjectFailed) validate() error {
	if m.ProjectName == "" {
		return fmt.Errorf("project failed needs projectName")
	}
	return nil
}

// StrongholdOrderGiven records an order issued to a stronghold.
type StrongholdOrderGiven struct {
	StrongholdID   string `json:"strongholdId"`
	StrongholdName string `json:"strongholdName"`
	Order          string `json:"order"`
	IssuedBy       string `json:"issuedBy,omitempty"`
	DueGameDate    string `json:"dueGameDate,omitempty"`
}

func (m *StrongholdOrderGiven) EventType() Type { return TypeStrongholdOrderGiven }
func (m *StrongholdOrderGiven) validate() error {
	if m.StrongholdName == "" || m.Order == "" {
		return fmt.Errorf("stronghold order given needs strongholdName and order")
	}
	return nil
}

// StrongholdOrderCompleted records an order resolving.
type StrongholdOrderCompleted struct {
	StrongholdID   string `json:"strongholdId"`
	StrongholdName string `json:"strongholdName"`
	Order          string `json:"order"`
	Result         string `json:"result,omitempty"`
}

func (m *StrongholdOrderCompleted) EventType() Type { return TypeStrongholdOrderCompleted }
func (m *StrongholdOrderCompleted) validate() error {
	if m.StrongholdName == "" || m.Order == "" {
		return fmt.Errorf("stronghold order completed needs strongholdName and order")
	}
	return nil
}

// TimeAdvanced records in-fiction time passing.
type TimeAdvanced struct {
	Days     int    `json:"days"`
	FromDate string `json:"fromDate,omitempty"`
	ToDate   string `json:"toDate,omitempty"`
}

func (m *TimeAdvanced) EventType() Type { return TypeTimeAdvanced }
func (m *TimeAdvanced) validate() error {
	if m.Days == 0 {
		return fmt.Errorf("time advanced needs a non-zero day count")
	}
	return nil
}

// FundsAdjusted records party funds changing.
type FundsAdjusted struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Reason   string `json:"reason,omitempty"`
	Balance  *int   `json:"balance,omitempty"`
}

func (m *FundsAdjusted) EventType() Type { return TypeFundsAdjusted }
func (m *FundsAdjusted) validate() error {
	if m.Currency == "" {
		return fmt.Errorf("funds adjusted needs currency")
	}
	return nil
}

// ItemAdded records an item entering the party inventory.
type ItemAdded struct {
	ItemName string `json:"itemName"`
	Quantity int    `json:"quantity"`
	Owner    string `json:"owner,omitempty"`
	Source   string `json:"source,omitempty"`
}

func (m *ItemAdded) EventType() Type { return TypeItemAdded }
func (m *ItemAdded) validate() error {
	if m.ItemName == "" {
		return fmt.Errorf("item added needs itemName")
	}
	return nil
}

// ItemRemoved records an item leaving the party inventory.
type ItemRemoved struct {
	ItemName string `json:"itemName"`
	Quantity int    `json:"quantity"`
	Owner    string `json:"owner,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func (m *ItemRemoved) EventType() Type { return TypeItemRemoved }
func (m *ItemRemoved) validate() error {
	if m.ItemName == "" {
		return fmt.Errorf("item removed needs itemName")
	}
	return nil
}

// CustomNote is freeform, and doubles as the fallback shape for events whose
// type the engine does not recognize.
type CustomNote struct {
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

func (m *CustomNote) EventType() Type { return TypeCustomNote }
func (m *CustomNote) validate() error { return nil }

// EncodeMetadata serializes a payload to its JSON blob form.
func EncodeMetadata(m Metadata) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("nil metadata")
	}
	return json.Marshal(m)
}

// DecodeMetadata parses data into the payload shape declared by t. The switch
// is exhaustive over the enumeration; callers must map unknown types to
// TypeCustomNote before calling (see codec.Decode). A payload that does not
// match its declared shape is an error, not a silent default.
func DecodeMetadata(t Type, data []byte) (Metadata, error) {
	var m Metadata
	switch t {
	case TypeShopTransaction:
		m = &ShopTransaction{}
	case TypeShopCreated:
		m = &ShopCreated{}
	case TypeShopRestocked:
		m = &ShopRestocked{}
	case TypeProjectStarted:
		m = &ProjectStarted{}
	case TypeProjectProgress:
		m = &ProjectProgress{}
	case TypeProjectCompleted:
		m = &ProjectCompleted{}
	case TypeProjectFailed:
		m = &ProjectFailed{}
	case TypeStrongholdOrderGiven:
		m = &StrongholdOrderGiven{}
	case TypeStrongholdOrderCompleted:
		m = &StrongholdOrderCompleted{}
	case TypeTimeAdvanced:
		m = &TimeAdvanced{}
	case TypeFundsAdjusted:
		m = &FundsAdjusted{}
	case TypeItemAdded:
		m = &ItemAdded{}
	case TypeItemRemoved:
		m = &ItemRemoved{}
	case TypeCustomNote:
		m = &CustomNote{}
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("metadata does not match %s shape: %w", t, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}
