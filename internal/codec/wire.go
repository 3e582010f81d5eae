package codec

import (
	"encoding/base64"
	"strings"
)

// Wire grammar constants. The metadata line is the sole machine-readable
// source of truth for an entry; everything else in a block is presentation
// and may be hand-edited freely.
const (
	// HeaderPrefix starts every entry's first line.
	HeaderPrefix = "## "

	// MetaOpen/MetaClose delimit the metadata line.
	MetaOpen  = "<!--"
	MetaClose = "-->"

	// TimeLayout renders the human-readable timestamp in entry headers.
	// Decode never reads it back; the metadata integer wins.
	TimeLayout = "Jan 2, 2006 15:04"
)

// Metadata line keys.
const (
	keyID               = "id"
	keyType             = "type"
	keyCampaignID       = "campaignId"
	keyTimestamp        = "timestamp"
	keyGameDate         = "gameDate"
	keyActorType        = "actorType"
	keyActorName        = "actorName"
	keyDescription      = "description"
	keyMetadata         = "metadata"
	keyNotes            = "notes"
	keyNotesLastUpdated = "notesLastUpdated"
)

var tokenEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	" ", "&#32;",
	"\t", "&#9;",
	"\n", "&#10;",
	"\r", "&#13;",
)

var tokenUnescaper = strings.NewReplacer(
	"&#32;", " ",
	"&#9;", "\t",
	"&#10;", "\n",
	"&#13;", "\r",
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
)

// escapeToken makes free text safe to embed as one whitespace-delimited
// token on the metadata line. Angle brackets are escaped so a value can
// never contain the line's closing marker.
func escapeToken(s string) string { return tokenEscaper.Replace(s) }

// unescapeToken reverses escapeToken.
func unescapeToken(s string) string { return tokenUnescaper.Replace(s) }

// encodePayload wraps an arbitrary string (JSON metadata, notes) so it
// survives embedding as a single token: no whitespace, no line breaks, and
// the block delimiter cannot appear in the output alphabet.
func encodePayload(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// decodePayload reverses encodePayload.
func decodePayload(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
