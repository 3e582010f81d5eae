package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/DubyaFM/quartermaster/internal/event"
)

// renderBody produces the human-readable part of a block: actor and
// description lines, an optional quoted notes section, then the
// variant-specific fields. Freeform multi-line text is always rendered as a
// quote so a bare delimiter line can never appear inside a block.
func renderBody(ev event.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Actor:** %s\n", inline(ev.Actor()))
	fmt.Fprintf(&b, "**Description:** %s\n", inline(ev.Description))

	if ev.Notes != "" {
		when := ""
		if ev.NotesLastUpdated > 0 {
			when = time.UnixMilli(ev.NotesLastUpdated).UTC().Format("2006-01-02")
		}
		if when != "" {
			fmt.Fprintf(&b, "> **Notes** (%s)\n", when)
		} else {
			b.WriteString("> **Notes**\n")
		}
		writeQuoted(&b, ev.Notes)
	}

	renderMetadata(&b, ev.Metadata)
	return guardDelimiters(b.String())
}

// inline collapses line breaks so a single-line presentation field cannot
// add lines to the body.
func inline(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}

// guardDelimiters escapes any body line that would read as a block
// delimiter. Variant fields render freeform text verbatim, so a block must
// be sanitized as a whole before it is spliced into the document.
func guardDelimiters(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			lines[i] = "\\" + line
		}
	}
	return strings.Join(lines, "\n")
}

func writeQuoted(b *strings.Builder, text string) {
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func renderMetadata(b *strings.Builder, m event.Metadata) {
	switch v := m.(type) {
	case *event.ShopTransaction:
		fmt.Fprintf(b, "**Transaction:** %s\n", v.Transaction)
		fmt.Fprintf(b, "**Shop:** %s%s\n", v.ShopName, parenthetical(v.ShopID))
		fmt.Fprintf(b, "**Total:** %d\n", v.TotalCost)
		if v.Player != "" {
			fmt.Fprintf(b, "**Player:** %s\n", v.Player)
		}
		if len(v.Items) > 0 {
			b.WriteString("**Items:**\n")
			for _, it := range v.Items {
				fmt.Fprintf(b, "- %dx %s @ %d\n", it.Quantity, it.Name, it.Price)
			}
		}
	case *event.ShopCreated:
		fmt.Fprintf(b, "**Shop:** %s%s\n", v.ShopName, parenthetical(v.ShopID))
		if v.ShopType != "" {
			fmt.Fprintf(b, "**Type:** %s\n", v.ShopType)
		}
		if v.Location != "" {
			fmt.Fprintf(b, "**Location:** %s\n", v.Location)
		}
	case *event.ShopRestocked:
		fmt.Fprintf(b, "**Shop:** %s%s\n", v.ShopName, parenthetical(v.ShopID))
		fmt.Fprintf(b, "**Items Added:** %d\n", v.ItemsAdded)
		fmt.Fprintf(b, "**Items Removed:** %d\n", v.ItemsRemoved)
	case *event.ProjectStarted:
		fmt.Fprintf(b, "**Project:** %s%s\n", v.ProjectName, parenthetical(v.ProjectID))
		if v.Owner != "" {
			fmt.Fprintf(b, "**Owner:** %s\n", v.Owner)
		}
		if v.GoalHours > 0 {
			fmt.Fprintf(b, "**Goal:** %d hours\n", v.GoalHours)
		}
	case *event.ProjectProgress:
		fmt.Fprintf(b, "**Project:** %s%s\n", v.ProjectName, parenthetical(v.ProjectID))
		fmt.Fprintf(b, "**Hours Spent:** %d\n", v.HoursSpent)
		if v.TotalHours > 0 {
			fmt.Fprintf(b, "**Total Hours:** %d\n", v.TotalHours)
		}
		if v.Note != "" {
			writeQuoted(b, v.Note)
		}
	case *event.ProjectCompleted:
		fmt.Fprintf(b, "**Project:** %s%s\n", v.ProjectName, parenthetical(v.ProjectID))
		if v.TotalHours > 0 {
			fmt.Fprintf(b, "**Total Hours:** %d\n", v.TotalHours)
		}
		if v.Outcome != "" {
			fmt.Fprintf(b, "**Outcome:** %s\n", v.Outcome)
		}
	case *event.ProjectFailed:
		fmt.Fprintf(b, "**Project:** %s%s\n", v.ProjectName, parenthetical(v.ProjectID))
		if v.Reason != "" {
			fmt.Fprintf(b, "**Reason:** %s\n", v.Reason)
		}
	case *event.StrongholdOrderGiven:
		fmt.Fprintf(b, "**Stronghold:** %s%s\n", v.StrongholdName, parenthetical(v.StrongholdID))
		fmt.Fprintf(b, "**Order:** %s\n", v.Order)
		if v.IssuedBy != "" {
			fmt.Fprintf(b, "**Issued By:** %s\n", v.IssuedBy)
		}
		if v.DueGameDate != "" {
			fmt.Fprintf(b, "**Due:** %s\n", v.DueGameDate)
		}
	case *event.StrongholdOrderCompleted:
		fmt.Fprintf(b, "**Stronghold:** %s%s\n", v.StrongholdName, parenthetical(v.StrongholdID))
		fmt.Fprintf(b, "**Order:** %s\n", v.Order)
		if v.Result != "" {
			fmt.Fprintf(b, "**Result:** %s\n", v.Result)
		}
	case *event.TimeAdvanced:
		fmt.Fprintf(b, "**Days:** %d\n", v.Days)
		if v.FromDate != "" && v.ToDate != "" {
			fmt.Fprintf(b, "**From:** %s\n**To:** %s\n", v.FromDate, v.ToDate)
		}
	case *event.FundsAdjusted:
		fmt.Fprintf(b, "**Amount:** %+d %s\n", v.Amount, v.Currency)
		if v.Reason != "" {
			fmt.Fprintf(b, "**Reason:** %s\n", v.Reason)
		}
		if v.Balance != nil {
			fmt.Fprintf(b, "**Balance:** %d %s\n", *v.Balance, v.Currency)
		}
	case *event.ItemAdded:
		fmt.Fprintf(b, "**Item:** %dx %s\n", v.Quantity, v.ItemName)
		if v.Owner != "" {
			fmt.Fprintf(b, "**Owner:** %s\n", v.Owner)
		}
		if v.Source != "" {
			fmt.Fprintf(b, "**Source:** %s\n", v.Source)
		}
	case *event.ItemRemoved:
		fmt.Fprintf(b, "**Item:** %dx %s\n", v.Quantity, v.ItemName)
		if v.Owner != "" {
			fmt.Fprintf(b, "**Owner:** %s\n", v.Owner)
		}
		if v.Reason != "" {
			fmt.Fprintf(b, "**Reason:** %s\n", v.Reason)
		}
	case *event.CustomNote:
		if v.Title != "" {
			fmt.Fprintf(b, "**Title:** %s\n", v.Title)
		}
		if v.Content != "" {
			writeQuoted(b, v.Content)
		}
		if len(v.Tags) > 0 {
			fmt.Fprintf(b, "**Tags:** %s\n", strings.Join(v.Tags, ", "))
		}
	}
}

func parenthetical(id string) string {
	if id == "" {
		return ""
	}
	return " (" + id + ")"
}
