package voice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimize_StripsMarkdown(t *testing.T) {
	in := "# Hello\n\nThis is **bold** and *italic* with `code` and a [link](https://example.com)."
	out := Optimize(in, DefaultOptions())

	assert.NotContains(t, out, "#")
	assert.NotContains(t, out, "**")
	assert.NotContains(t, out, "`")
	assert.NotContains(t, out, "](")
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "italic")
	assert.Contains(t, out, "link")
}

func TestOptimize_PreservesParagraphBoundaries(t *testing.T) {
	in := "First paragraph.\n\nSecond paragraph."
	out := Optimize(in, DefaultOptions())

	require.Contains(t, out, "\n\n")
	assert.Contains(t, out, PauseMarker)
}

func TestOptimize_ListMarkersStripped(t *testing.T) {
	in := "Things I built:\n\n- a portfolio\n- an assistant"
	out := Optimize(in, DefaultOptions())
	assert.NotContains(t, out, "- a")
	assert.Contains(t, out, "a portfolio")
}

func TestOptimize_IdempotentOnPlainText(t *testing.T) {
	inputs := []string{
		"Hello there. This is a plain sentence without any markdown at all.",
		"First paragraph.\n\nSecond paragraph with more words in it.",
		"A question? An exclamation! And a closing statement.",
	}
	for _, in := range inputs {
		once := Optimize(in, DefaultOptions())
		twice := Optimize(once, DefaultOptions())
		assert.Equal(t, once, twice, "input: %q", in)
	}
}

func TestExpandAcronyms_DottedForms(t *testing.T) {
	out := Optimize("The STT pipeline feeds the TTS engine over an API.", DefaultOptions())
	assert.Contains(t, out, "S.T.T.")
	assert.Contains(t, out, "T.T.S.")
	assert.Contains(t, out, "A.P.I.")
}

func TestExpandAcronyms_BareFormsLeftAlone(t *testing.T) {
	out := Optimize("I work on AI and RAG systems.", DefaultOptions())
	assert.Contains(t, out, "AI")
	assert.Contains(t, out, "RAG")
	assert.NotContains(t, out, "A.I.")
	assert.NotContains(t, out, "R.A.G.")
}

func TestExpandAcronyms_RoundTripStable(t *testing.T) {
	once := Optimize("STT is speech to text.", DefaultOptions())
	require.Contains(t, once, "S.T.T.")

	twice := Optimize(once, DefaultOptions())
	assert.Equal(t, once, twice)
	assert.NotContains(t, twice, "S.T.T.S.T.T.")
}

func TestExpandAcronyms_NoMatchInsideWords(t *testing.T) {
	out := Optimize("The capital of Italy is not STTgart.", DefaultOptions())
	assert.Contains(t, out, "STTgart")
}

func TestSplitBreathUnits_Bound(t *testing.T) {
	const maxLen = 50
	long := "This sentence keeps going with several clauses, one after another, " +
		"each adding a little more length, until it is far past the limit we set here."

	units := SplitBreathUnits(long, maxLen)
	require.NotEmpty(t, units)
	for _, u := range units {
		assert.LessOrEqual(t, len(u), maxLen, "unit: %q", u)
	}
}

func TestSplitBreathUnits_ShortSentenceUntouched(t *testing.T) {
	units := SplitBreathUnits("Short and sweet.", 160)
	assert.Equal(t, []string{"Short and sweet."}, units)
}

func TestSplitBreathUnits_UnsplittableTokenPassesThrough(t *testing.T) {
	token := strings.Repeat("x", 80)
	units := SplitBreathUnits("Start here, "+token+", end here.", 40)

	require.Contains(t, units, token+",")
	for _, u := range units {
		if strings.Contains(u, "x") {
			assert.Contains(t, u, token, "token must never be truncated")
		}
	}
}

func TestSplitBreathUnits_NoClauseBoundaries(t *testing.T) {
	// A long sentence with no commas falls back to word-level runs.
	long := strings.Repeat("word ", 40) + "end."
	units := SplitBreathUnits(long, 60)
	require.Greater(t, len(units), 1)
	for _, u := range units {
		assert.LessOrEqual(t, len(u), 60)
	}
}

func TestConversationalStyle(t *testing.T) {
	out := Optimize("However, the approach works. Furthermore, it is fast.", DefaultOptions())
	assert.Contains(t, out, "But the approach works.")
	assert.Contains(t, out, "Plus, it is fast.")
	assert.NotContains(t, out, "However")
	assert.NotContains(t, out, "Furthermore")
}

func TestConversationalStyle_Disabled(t *testing.T) {
	opts := DefaultOptions()
	opts.UseConversationalStyle = false
	out := Optimize("However, the approach works.", opts)
	assert.Contains(t, out, "However")
}

func TestParagraphPauses_Disabled(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableParagraphPauses = false
	out := Optimize("One.\n\nTwo.", opts)
	assert.NotContains(t, out, PauseMarker)
	assert.Contains(t, out, "\n\n")
}

func TestOptimize_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Optimize("", DefaultOptions()))
	assert.Equal(t, "", Optimize("   \n\n  ", DefaultOptions()))
}

func TestOptimize_Trimmed(t *testing.T) {
	out := Optimize("  padded text.  ", DefaultOptions())
	assert.Equal(t, out, strings.TrimSpace(out))
}
