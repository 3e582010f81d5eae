// Package codec serializes activity-log events to dual-audience entry
// blocks and parses them back.
//
// A block has three parts:
//
//	## Funds Adjusted (1492-03-11) @ Mar 11, 2026 14:02
//	<!-- id: ... type: funds_adjusted campaignId: ... timestamp: ... ... -->
//
//	**Actor:** Wren
//	**Description:** Paid the harbormaster
//	**Amount:** -200 gp
//
// The HTML-comment line carries every envelope field plus the variant
// payload (JSON, base64url-wrapped) and is the only part Decode reads. The
// header and body exist for people; they may be rewritten by hand without
// affecting the parsed result.
package codec
