package query

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/DubyaFM/quartermaster/internal/event"
)

// celFilter wraps a compiled CEL program evaluated per event. When disabled,
// Eval always returns true. An expression that fails at runtime excludes the
// event rather than failing the query.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("campaign_id", cel.StringType),
		cel.Variable("event_type", cel.StringType),
		cel.Variable("actor_type", cel.StringType),
		cel.Variable("actor_name", cel.StringType),
		cel.Variable("description", cel.StringType),
		cel.Variable("notes", cel.StringType),
		cel.Variable("game_date", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against one event.
func (f celFilter) Eval(ev event.Event) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"id":          ev.ID,
		"campaign_id": ev.CampaignID,
		"event_type":  string(ev.Type),
		"actor_type":  string(ev.ActorType),
		"actor_name":  ev.ActorName,
		"description": ev.Description,
		"notes":       ev.Notes,
		"game_date":   ev.GameDate,
		"ts_ms":       ev.Timestamp,
		"now_ms":      time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
