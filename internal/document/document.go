// Package document holds the activity-log file grammar: one header line,
// then entry blocks separated by delimiter lines. Blocks are opaque text
// here; entry semantics live in the codec so the two can change
// independently.
package document

import "strings"

const (
	// Header is the fixed first line of every activity log.
	Header = "# Activity Log"

	// Delimiter separates entry blocks. It appears alone on its line.
	Delimiter = "---"
)

// Empty returns the minimal valid document.
func Empty() string { return Header + "\n" }

// Block is one raw entry block with the 1-based line number where it starts,
// kept for corruption reports.
type Block struct {
	Text string
	Line int
}

// Split breaks a document into its entry blocks. The header line and blank
// lines between blocks are dropped; everything else is preserved verbatim.
// A delimiter is any line that is exactly "---" after trimming whitespace.
func Split(doc string) []Block {
	var blocks []Block
	var cur []string
	curLine := 0

	flush := func() {
		text := strings.TrimRight(strings.Join(cur, "\n"), "\n \t")
		if strings.TrimSpace(text) != "" {
			blocks = append(blocks, Block{Text: text, Line: curLine})
		}
		cur = cur[:0]
		curLine = 0
	}

	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == Delimiter {
			flush()
			continue
		}
		if len(blocks) == 0 && len(cur) == 0 && trimmed == Header {
			continue
		}
		if len(cur) == 0 {
			if trimmed == "" {
				continue
			}
			curLine = i + 1
		}
		cur = append(cur, line)
	}
	flush()
	return blocks
}

// Assemble joins the header with entry blocks into a full document.
func Assemble(blocks []string) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n")
	for i, block := range blocks {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(block, "\n"))
		b.WriteString("\n")
		if i < len(blocks)-1 {
			b.WriteString("\n")
			b.WriteString(Delimiter)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Prepend inserts one pre-rendered block immediately after the header of an
// existing document, leaving every existing block byte-for-byte untouched.
// This is the cheap path used by appends; note updates regenerate the whole
// document instead.
func Prepend(doc, block string) string {
	existing := Split(doc)
	out := make([]string, 0, len(existing)+1)
	out = append(out, strings.TrimRight(block, "\n"))
	for _, b := range existing {
		out = append(out, b.Text)
	}
	return Assemble(out)
}
