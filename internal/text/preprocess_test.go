package text

import "testing"

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"bracket cue removed",
			"Welcome back. [intro music fades] Today we talk about tea.",
			"Welcome back. Today we talk about tea.",
		},
		{
			"paren cue removed",
			"The results (see chart below) were surprising.",
			"The results were surprising.",
		},
		{
			"connectives become conversational",
			"However, the data disagreed. Therefore, we stopped.",
			"But the data disagreed. So we stopped.",
		},
		{
			"lowercase connectives too",
			"It rained; nevertheless, we went. It was fine; moreover, it was fun.",
			"It rained; still, we went. It was fine; plus, it was fun.",
		},
		{
			"whitespace collapsed",
			"One   two\n\nthree\tfour",
			"One two three four",
		},
		{
			"only cues yields empty",
			"[music] (applause)",
			"",
		},
		{
			"plain text untouched",
			"Nothing to change here.",
			"Nothing to change here.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preprocess(tt.in); got != tt.want {
				t.Errorf("Preprocess() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreprocessDeterministic(t *testing.T) {
	in := "However, the [loud] outcome (somehow) held.   Twice."
	first := Preprocess(in)
	second := Preprocess(first)
	if first != second {
		t.Errorf("Preprocess not stable: %q then %q", first, second)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  a\t b\n\nc "); got != "a b c" {
		t.Errorf("Normalize() = %q, want %q", got, "a b c")
	}
}
