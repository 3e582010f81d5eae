package document

import (
	"strings"
	"testing"
)

func TestSplitEmptyDocument(t *testing.T) {
	if got := Split(Empty()); len(got) != 0 {
		t.Fatalf("empty document should have no blocks, got %d", len(got))
	}
	if got := Split(""); len(got) != 0 {
		t.Fatalf("blank text should have no blocks, got %d", len(got))
	}
}

func TestSplitAssembleRoundTrip(t *testing.T) {
	blocks := []string{
		"## One\n<!-- a -->\n\nbody one",
		"## Two\n<!-- b -->\n\nbody two",
		"## Three\n<!-- c -->\n\nbody three",
	}
	doc := Assemble(blocks)
	got := Split(doc)
	if len(got) != 3 {
		t.Fatalf("want 3 blocks, got %d", len(got))
	}
	for i := range blocks {
		if got[i].Text != blocks[i] {
			t.Fatalf("block %d changed:\n got %q\nwant %q", i, got[i].Text, blocks[i])
		}
	}
}

func TestSplitRecordsLineNumbers(t *testing.T) {
	doc := Assemble([]string{"## One\nbody", "## Two\nbody"})
	got := Split(doc)
	if len(got) != 2 {
		t.Fatalf("want 2 blocks, got %d", len(got))
	}
	if got[0].Line != 3 {
		t.Fatalf("first block line = %d, want 3", got[0].Line)
	}
	if got[1].Line <= got[0].Line {
		t.Fatalf("second block line %d should follow first %d", got[1].Line, got[0].Line)
	}
	lines := strings.Split(doc, "\n")
	if !strings.HasPrefix(lines[got[1].Line-1], "## Two") {
		t.Fatalf("line %d is %q, want start of second block", got[1].Line, lines[got[1].Line-1])
	}
}

func TestSplitToleratesSpacedDelimiters(t *testing.T) {
	doc := Header + "\n\nblock one\n --- \nblock two\n"
	got := Split(doc)
	if len(got) != 2 {
		t.Fatalf("want 2 blocks, got %d: %#v", len(got), got)
	}
}

func TestPrependKeepsExistingBlocksVerbatim(t *testing.T) {
	doc := Assemble([]string{"old block, hand-tweaked   spacing"})
	out := Prepend(doc, "new block")
	got := Split(out)
	if len(got) != 2 {
		t.Fatalf("want 2 blocks, got %d", len(got))
	}
	if got[0].Text != "new block" {
		t.Fatalf("first block = %q", got[0].Text)
	}
	if got[1].Text != "old block, hand-tweaked   spacing" {
		t.Fatalf("existing block changed: %q", got[1].Text)
	}
}

func TestPrependIntoEmptyDocument(t *testing.T) {
	out := Prepend(Empty(), "only block")
	got := Split(out)
	if len(got) != 1 || got[0].Text != "only block" {
		t.Fatalf("got %#v", got)
	}
}
