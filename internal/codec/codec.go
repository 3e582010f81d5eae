package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DubyaFM/quartermaster/internal/event"
	logpkg "github.com/DubyaFM/quartermaster/pkg/log"
)

// Decode failure sentinels. All of them mark a block as corrupted; none of
// them aborts a full-document rebuild.
var (
	ErrMissingMetadata = errors.New("metadata marker not found")
	ErrMissingField    = errors.New("missing required metadata field")
	ErrBadTimestamp    = errors.New("timestamp is not a non-negative integer")
)

// Codec encodes one event to an entry block and decodes one block back to an
// event. It is stateless apart from the logger used for enum-fallback
// warnings.
type Codec struct {
	log logpkg.Logger
}

// New returns a Codec that reports recovered enum fallbacks on logger.
func New(logger logpkg.Logger) *Codec {
	return &Codec{log: logger.WithComponent("codec")}
}

// Encode renders ev as a full entry block: header line, metadata line, then
// the human-readable body.
func (c *Codec) Encode(ev event.Event) (string, error) {
	if ev.Metadata == nil {
		return "", fmt.Errorf("event %s has no metadata payload", ev.ID)
	}
	if ev.Type.Valid() && ev.Metadata.EventType() != ev.Type {
		return "", fmt.Errorf("event %s declares %s but carries %s metadata",
			ev.ID, ev.Type, ev.Metadata.EventType())
	}
	if ev.Timestamp < 0 {
		return "", fmt.Errorf("event %s has negative timestamp %d", ev.ID, ev.Timestamp)
	}
	if ev.ID == "" || ev.CampaignID == "" {
		return "", fmt.Errorf("event needs id and campaignId")
	}
	if !ev.ActorType.Valid() {
		return "", fmt.Errorf("event %s has invalid actor type %q", ev.ID, ev.ActorType)
	}

	var b strings.Builder

	// Header line
	b.WriteString(HeaderPrefix)
	b.WriteString(ev.Type.Label())
	if ev.GameDate != "" {
		b.WriteString(" (")
		b.WriteString(inline(ev.GameDate))
		b.WriteString(")")
	}
	b.WriteString(" @ ")
	b.WriteString(time.UnixMilli(ev.Timestamp).UTC().Format(TimeLayout))
	b.WriteString("\n")

	// Metadata line
	meta, err := c.metadataLine(ev)
	if err != nil {
		return "", err
	}
	b.WriteString(meta)
	b.WriteString("\n\n")

	// Human-readable body
	b.WriteString(renderBody(ev))

	return b.String(), nil
}

func (c *Codec) metadataLine(ev event.Event) (string, error) {
	payload, err := event.EncodeMetadata(ev.Metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata for %s: %w", ev.ID, err)
	}

	parts := []string{MetaOpen}
	add := func(key, value string) {
		parts = append(parts, key+":", value)
	}
	add(keyID, ev.ID)
	add(keyType, string(ev.Type))
	add(keyCampaignID, ev.CampaignID)
	add(keyTimestamp, strconv.FormatInt(ev.Timestamp, 10))
	if ev.GameDate != "" {
		add(keyGameDate, escapeToken(ev.GameDate))
	}
	add(keyActorType, string(ev.ActorType))
	if ev.ActorName != "" {
		add(keyActorName, escapeToken(ev.ActorName))
	}
	if ev.Description != "" {
		add(keyDescription, escapeToken(ev.Description))
	}
	add(keyMetadata, encodePayload(string(payload)))
	if ev.Notes != "" {
		add(keyNotes, encodePayload(ev.Notes))
	}
	if ev.NotesLastUpdated != 0 {
		add(keyNotesLastUpdated, strconv.FormatInt(ev.NotesLastUpdated, 10))
	}
	parts = append(parts, MetaClose)
	return strings.Join(parts, " "), nil
}

// Decode reconstructs an event from a block. The metadata line is the only
// part read; the header and body are presentation.
//
// Unknown event types fall back to the custom-note variant and unknown actor
// types to system, both logged at warn and counted as successfully parsed.
// Everything else in the failure taxonomy is a hard error for this block.
func (c *Codec) Decode(block string) (event.Event, error) {
	var ev event.Event

	kv, err := extractMetadata(block)
	if err != nil {
		return ev, err
	}

	for _, required := range []string{keyID, keyType, keyCampaignID, keyTimestamp} {
		if kv[required] == "" {
			return ev, fmt.Errorf("%w: %s", ErrMissingField, required)
		}
	}

	ts, err := strconv.ParseInt(kv[keyTimestamp], 10, 64)
	if err != nil || ts < 0 {
		return ev, fmt.Errorf("%w: %q", ErrBadTimestamp, kv[keyTimestamp])
	}

	ev.ID = kv[keyID]
	ev.CampaignID = kv[keyCampaignID]
	ev.Timestamp = ts
	ev.GameDate = unescapeToken(kv[keyGameDate])
	ev.ActorName = unescapeToken(kv[keyActorName])
	ev.Description = unescapeToken(kv[keyDescription])

	ev.ActorType = event.ActorType(kv[keyActorType])
	if !ev.ActorType.Valid() {
		c.log.Warn("unknown actor type, defaulting to system",
			logpkg.F("event", ev.ID), logpkg.F("actorType", kv[keyActorType]))
		ev.ActorType = event.ActorSystem
	}

	payload, err := decodePayload(kv[keyMetadata])
	if err != nil {
		return ev, fmt.Errorf("metadata payload is not decodable: %w", err)
	}

	typ := event.Type(kv[keyType])
	if typ.Valid() {
		ev.Type = typ
		meta, err := event.DecodeMetadata(typ, []byte(payload))
		if err != nil {
			return ev, err
		}
		ev.Metadata = meta
	} else {
		// Envelope is intact, so the entry survives as a custom note carrying
		// the raw payload. This is a compatibility choice, not corruption.
		c.log.Warn("unknown event type, falling back to custom note",
			logpkg.F("event", ev.ID), logpkg.F("type", kv[keyType]))
		ev.Type = event.TypeCustomNote
		ev.Metadata = &event.CustomNote{Content: payload}
	}

	if raw := kv[keyNotes]; raw != "" {
		notes, err := decodePayload(raw)
		if err != nil {
			return ev, fmt.Errorf("notes payload is not decodable: %w", err)
		}
		ev.Notes = notes
	}
	if raw := kv[keyNotesLastUpdated]; raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ev, fmt.Errorf("notesLastUpdated is not an integer: %q", raw)
		}
		ev.NotesLastUpdated = n
	}

	return ev, nil
}

// extractMetadata finds the metadata line and tokenizes its key/value pairs.
// Unknown keys are skipped for forward compatibility.
func extractMetadata(block string) (map[string]string, error) {
	open := strings.Index(block, MetaOpen)
	if open < 0 {
		return nil, ErrMissingMetadata
	}
	rest := block[open+len(MetaOpen):]
	end := strings.Index(rest, MetaClose)
	if end < 0 {
		return nil, ErrMissingMetadata
	}

	kv := map[string]string{}
	fields := strings.Fields(rest[:end])
	for i := 0; i < len(fields); i++ {
		key, ok := strings.CutSuffix(fields[i], ":")
		if !ok || key == "" {
			continue
		}
		if i+1 >= len(fields) {
			break
		}
		// Keys never repeat in well-formed lines; last write wins otherwise.
		kv[key] = fields[i+1]
		i++
	}
	return kv, nil
}
