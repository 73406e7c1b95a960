package text

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			"plain sentences",
			"First sentence. Second sentence! Third sentence?",
			[]string{"First sentence.", "Second sentence!", "Third sentence?"},
		},
		{
			"no terminator",
			"just a fragment with no ending",
			[]string{"just a fragment with no ending"},
		},
		{
			"terminator runs",
			"Wait... Really?! Yes.",
			[]string{"Wait...", "Really?!", "Yes."},
		},
		{
			"closing quote stays attached",
			`He said "stop." Then he left.`,
			[]string{`He said "stop."`, "Then he left."},
		},
		{
			"decimal point is not a boundary",
			"The rate was 3.5 percent. It rose.",
			[]string{"The rate was 3.5 percent.", "It rose."},
		},
		{
			"abbreviation mid-token survives",
			"Visit example.com today. It works.",
			[]string{"Visit example.com today.", "It works."},
		},
		{
			"ellipsis rune",
			"Hmm… maybe. Fine.",
			[]string{"Hmm…", "maybe.", "Fine."},
		},
		{
			"empty input",
			"   ",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d sentences %q, want %d %q", len(got), got, len(tt.want), tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sentence %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanRespectsMaxLen(t *testing.T) {
	// 12 sentences of ~100 runes each against a 500-rune budget.
	sentence := strings.Repeat("word ", 19) + "done."
	script := strings.TrimSpace(strings.Repeat(sentence+" ", 12))

	chunks := Plan(script, FineChunkLen)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if n := utf8.RuneCountInString(c.Content); n > FineChunkLen {
			t.Errorf("chunk %d has %d runes, budget %d", c.Index, n, FineChunkLen)
		}
	}
}

func TestPlanIndicesAndFinalFlag(t *testing.T) {
	chunks := Plan("One. Two. Three.", 6)

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d carries index %d", i, c.Index)
		}
		wantFinal := i == len(chunks)-1
		if c.IsFinal != wantFinal {
			t.Errorf("chunk %d IsFinal = %v, want %v", i, c.IsFinal, wantFinal)
		}
	}
}

func TestPlanReassemblyLosesNothing(t *testing.T) {
	script := "The show opens with a question? Then come three quick facts. " +
		"A longer digression follows, spanning several clauses and a number like 2.5! " +
		"Finally the host wraps up… with one last aside."

	chunks := Plan(script, 60)

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	if got := Normalize(strings.Join(parts, " ")); got != Normalize(script) {
		t.Errorf("reassembled text differs:\n got: %q\nwant: %q", got, Normalize(script))
	}
}

func TestPlanOversizedSentenceBecomesOwnChunk(t *testing.T) {
	long := strings.Repeat("a", 700) + "."
	script := "Short one. " + long + " Short two."

	chunks := Plan(script, FineChunkLen)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if utf8.RuneCountInString(chunks[1].Content) != 701 {
		t.Errorf("oversized chunk has %d runes, want 701 intact", utf8.RuneCountInString(chunks[1].Content))
	}
}

func TestPlanSingleChunkWhenItFits(t *testing.T) {
	chunks := Plan("Short script. Nothing more.", FineChunkLen)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if !chunks[0].IsFinal {
		t.Error("sole chunk must carry IsFinal")
	}
}

func TestPlanEmptyInput(t *testing.T) {
	if chunks := Plan("", FineChunkLen); chunks != nil {
		t.Errorf("Plan(\"\") = %v, want nil", chunks)
	}
}
