// Package voice converts assistant markdown-ish output into speech-friendly
// text: markdown stripped, acronyms expanded, long sentences broken into
// breath units, formal phrasing relaxed, paragraph pauses cued for the TTS
// provider. Every function here is pure.
package voice

import (
	"regexp"
	"strings"
)

// Options configure the optimizer pipeline.
type Options struct {
	// MaxBreathUnitLength is the longest span before a break is forced.
	MaxBreathUnitLength int

	// AddThinkingPauses inserts artificial ellipsis pauses. Disabled:
	// they sound robotic. The stage is kept as an extension point.
	AddThinkingPauses bool

	// ExpandAcronyms applies the pronunciation table.
	ExpandAcronyms bool

	// UseConversationalStyle applies formal-to-casual phrase replacements.
	UseConversationalStyle bool

	// EnableParagraphPauses cues a TTS pause at each paragraph boundary.
	EnableParagraphPauses bool
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		MaxBreathUnitLength:    160,
		AddThinkingPauses:      false,
		ExpandAcronyms:         true,
		UseConversationalStyle: true,
		EnableParagraphPauses:  true,
	}
}

// PauseMarker is the multi-dot cue the TTS provider reads as a pause.
const PauseMarker = "....."

// paragraphSentinel protects double-newline runs while markdown is stripped.
const paragraphSentinel = "\x00PARA\x00"

// Optimize runs the full pipeline over text. Stages are strictly ordered;
// each stage's output feeds the next. The result is trimmed.
func Optimize(text string, opts Options) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if opts.MaxBreathUnitLength <= 0 {
		opts.MaxBreathUnitLength = DefaultOptions().MaxBreathUnitLength
	}

	out := stripMarkdown(text)
	if opts.ExpandAcronyms {
		out = expandAcronyms(out)
	}
	out = segmentBreathUnits(out, opts.MaxBreathUnitLength)
	if opts.AddThinkingPauses {
		out = addThinkingPauses(out)
	}
	if opts.UseConversationalStyle {
		out = conversationalize(out)
	}
	if opts.EnableParagraphPauses {
		out = insertParagraphPauses(out)
	}
	return strings.TrimSpace(out)
}

// --- stage 1: markdown stripping ---

var (
	reParagraph  = regexp.MustCompile(`\n{2,}`)
	reCodeFence  = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\n?(.*?)```")
	reInlineCode = regexp.MustCompile("`([^`]*)`")
	reImage      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	reBold       = regexp.MustCompile(`\*\*([^*]+)\*\*|__([^_]+)__`)
	reItalic     = regexp.MustCompile(`\*([^*\n]+)\*|\b_([^_\n]+)_\b`)
	reHeader     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	reListMarker = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+`)
	reBlockquote = regexp.MustCompile(`(?m)^>\s?`)
	reSpaces     = regexp.MustCompile(`[ \t]{2,}`)
)

// stripMarkdown removes markdown syntax while preserving paragraph
// boundaries. Line-anchored strips run while newlines are intact; the
// double-newline runs are then protected with a sentinel so collapsing
// soft wraps cannot merge paragraphs.
func stripMarkdown(text string) string {
	out := reCodeFence.ReplaceAllString(text, "$1")
	out = reHeader.ReplaceAllString(out, "")
	out = reListMarker.ReplaceAllString(out, "")
	out = reBlockquote.ReplaceAllString(out, "")

	out = reParagraph.ReplaceAllString(out, paragraphSentinel)

	out = reInlineCode.ReplaceAllString(out, "$1")
	out = reImage.ReplaceAllString(out, "$1")
	out = reLink.ReplaceAllString(out, "$1")
	out = reBold.ReplaceAllString(out, "$1$2")
	out = reItalic.ReplaceAllString(out, "$1$2")

	// Remaining single newlines are soft wraps.
	out = strings.ReplaceAll(out, "\n", " ")
	out = reSpaces.ReplaceAllString(out, " ")

	return strings.ReplaceAll(out, paragraphSentinel, "\n\n")
}

// --- stage 2: acronym expansion ---

// acronymTable drives longest-match-first substitution. The dotted-vs-bare
// asymmetry is deliberate and empirical: dotted forms are spelled out
// letter by letter by the TTS voice, bare entries already come out right
// when spoken as-is, so they are left untouched.
var acronymTable = []struct {
	from string
	to   string
}{
	{"HTML", "H.T.M.L."},
	{"FAQ", "F.A.Q."},
	{"STT", "S.T.T."},
	{"TTS", "T.T.S."},
	{"API", "A.P.I."},
	{"CSS", "C.S.S."},
	{"SQL", "S.Q.L."},
	{"UI", "U.I."},
	{"UX", "U.X."},
	// "AI" and "RAG" read naturally as spoken; expanding them sounded worse.
}

var acronymPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(acronymTable))
	for i, entry := range acronymTable {
		patterns[i] = regexp.MustCompile(`\b` + entry.from + `\b`)
	}
	return patterns
}()

// expandAcronyms applies the pronunciation table. Already-expanded dotted
// forms contain no bare acronym token, so running twice is a no-op.
func expandAcronyms(text string) string {
	for i, entry := range acronymTable {
		text = acronymPatterns[i].ReplaceAllString(text, entry.to)
	}
	return text
}

// --- stage 3: breath-unit segmentation ---

var reSentenceEnd = regexp.MustCompile(`([.!?]+)\s+`)

// segmentBreathUnits bounds every span of text by maxLen, splitting long
// sentences at clause boundaries. Paragraphs are processed independently
// so their boundaries survive.
func segmentBreathUnits(text string, maxLen int) string {
	paragraphs := strings.Split(text, "\n\n")
	for i, p := range paragraphs {
		paragraphs[i] = strings.Join(SplitBreathUnits(p, maxLen), " ")
	}
	return strings.Join(paragraphs, "\n\n")
}

// SplitBreathUnits splits text into speech-friendly units no longer than
// maxLen. A single token longer than maxLen passes through unchanged; it
// is never truncated mid-word.
func SplitBreathUnits(text string, maxLen int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var units []string
	for _, sentence := range splitSentences(text) {
		if len(sentence) <= maxLen {
			units = append(units, sentence)
			continue
		}
		units = append(units, splitClauses(sentence, maxLen)...)
	}
	return units
}

// splitSentences breaks text after sentence-ending punctuation followed by
// whitespace, keeping the punctuation with the sentence.
func splitSentences(text string) []string {
	marked := reSentenceEnd.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")

	var sentences []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

var reClauseEnd = regexp.MustCompile(`([,;:])\s+`)

// splitClauses splits an over-long sentence after commas, semicolons, and
// colons, then re-joins clauses into runs within maxLen. Clauses that are
// themselves too long fall back to word-level runs.
func splitClauses(sentence string, maxLen int) []string {
	marked := reClauseEnd.ReplaceAllString(sentence, "$1\x00")
	clauses := strings.Split(marked, "\x00")

	var units []string
	var run string
	flush := func() {
		if run != "" {
			units = append(units, run)
			run = ""
		}
	}

	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		if len(clause) > maxLen {
			flush()
			units = append(units, splitWords(clause, maxLen)...)
			continue
		}
		if run == "" {
			run = clause
		} else if len(run)+1+len(clause) <= maxLen {
			run += " " + clause
		} else {
			flush()
			run = clause
		}
	}
	flush()
	return units
}

// splitWords greedily packs words into runs within maxLen. An unsplittable
// word longer than maxLen becomes its own unit, unchanged.
func splitWords(clause string, maxLen int) []string {
	var units []string
	var run string
	for _, word := range strings.Fields(clause) {
		switch {
		case run == "":
			run = word
		case len(run)+1+len(word) <= maxLen:
			run += " " + word
		default:
			units = append(units, run)
			run = word
		}
	}
	if run != "" {
		units = append(units, run)
	}
	return units
}

// --- stage 4: strategic pauses (intentionally a no-op) ---

// addThinkingPauses is a reserved extension point. Artificial ellipsis
// pauses were tried and sounded robotic, so the stage does nothing.
func addThinkingPauses(text string) string {
	return text
}

// --- stage 5: conversational style ---

// casualReplacements is an ordered list of formal-to-casual substitutions.
// Order matters: longer phrases precede their substrings.
var casualReplacements = []struct {
	from string
	to   string
}{
	{"In addition, ", "Also, "},
	{"Furthermore, ", "Plus, "},
	{"Additionally, ", "Also, "},
	{"Moreover, ", "Also, "},
	{"However, ", "But "},
	{"Therefore, ", "So "},
	{"Nevertheless, ", "Still, "},
	{"utilizes", "uses"},
	{"utilize", "use"},
	{"approximately", "about"},
	{"in order to", "to"},
}

var reAfterTerminator = regexp.MustCompile(`([.!?])[ \t]+`)

func conversationalize(text string) string {
	for _, r := range casualReplacements {
		text = strings.ReplaceAll(text, r.from, r.to)
	}
	// Normalize whitespace after sentence terminators.
	text = reAfterTerminator.ReplaceAllString(text, "$1 ")
	return text
}

// --- stage 6: paragraph pauses ---

// reParagraphPause matches a paragraph boundary, with or without an
// existing pause marker, so insertion is idempotent.
var reParagraphPause = regexp.MustCompile(`\n{2,}(?:\.{5}\s*)?`)

func insertParagraphPauses(text string) string {
	return reParagraphPause.ReplaceAllString(text, "\n\n"+PauseMarker+" ")
}
