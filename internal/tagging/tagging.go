// Package tagging marks occurrences of idea names inside story HTML and
// derives the word count of a document.
//
// Tagging walks the token stream of the document and only rewrites text
// tokens, so names that appear in attribute values, tag names, comments or
// script/style content are never touched. Every byte outside a matched name
// is copied from the input as is. Text already wrapped by a previous pass is
// skipped, which makes the pass idempotent.
package tagging

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// TagClass is the class list of the wrapping span.
	TagClass = "idea-tag text-gray-800 bg-gray-100 px-1 rounded"
	// IndicatorClass is the class of the empty marker span inside a tag.
	IndicatorClass = "idea-indicator"

	markerClass = "idea-tag"

	openTag  = `<span class="` + TagClass + `">`
	closeTag = `<span class="` + IndicatorClass + `"></span></span>`
)

// Markup returns the exact HTML a single tagged occurrence of name renders to.
func Markup(name string) string {
	return wrap(html.EscapeString(name))
}

func wrap(rawText string) string {
	return openTag + rawText + closeTag
}

// Tag wraps every word-bounded, case-sensitive occurrence of each active idea
// name found in text content. The input is returned unchanged when there is
// nothing to tag.
func Tag(content string, names []string) string {
	out, _ := TagWithStats(content, names)
	return out
}

// TagWithStats is Tag plus the number of occurrences wrapped per name.
func TagWithStats(content string, names []string) (string, map[string]int) {
	stats := make(map[string]int)
	names = normalizeNames(names)
	for _, name := range names {
		stats[name] = 0
	}
	if len(names) == 0 || strings.TrimSpace(content) == "" {
		return content, stats
	}

	patterns := make([]*regexp.Regexp, len(names))
	for i, name := range names {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	}

	var out strings.Builder
	out.Grow(len(content))
	changed := false
	var st skipState

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		// Raw must be copied before TagName, which lowercases the buffer.
		raw := string(z.Raw())
		switch tt {
		case html.ErrorToken:
			if !errors.Is(z.Err(), io.EOF) {
				return content, stats
			}
			out.WriteString(raw)
			if !changed {
				return content, stats
			}
			return out.String(), stats
		case html.TextToken:
			if st.skipping() {
				out.WriteString(raw)
				continue
			}
			tagged, n := tagText(raw, names, patterns, stats)
			if n > 0 {
				changed = true
			}
			out.WriteString(tagged)
		case html.StartTagToken, html.SelfClosingTagToken:
			// A trailing slash does not close non-void elements.
			out.WriteString(raw)
			st.start(z)
		case html.EndTagToken:
			out.WriteString(raw)
			st.end(z)
		default:
			out.WriteString(raw)
		}
	}
}

// skipState tracks whether the tokenizer is inside raw text content or inside
// a span produced by an earlier pass.
type skipState struct {
	rawText     atom.Atom
	markerName  string
	markerDepth int
}

func (s *skipState) skipping() bool {
	return s.rawText != 0 || s.markerDepth > 0
}

func (s *skipState) start(z *html.Tokenizer) {
	name, hasAttr := z.TagName()
	a := atom.Lookup(name)
	if s.markerDepth > 0 {
		if string(name) == s.markerName {
			s.markerDepth++
		}
		return
	}
	switch a {
	case atom.Script, atom.Style, atom.Textarea, atom.Title,
		atom.Xmp, atom.Iframe, atom.Noembed, atom.Noframes, atom.Noscript, atom.Plaintext:
		s.rawText = a
		return
	}
	if hasAttr && isMarker(z) {
		s.markerName = string(name)
		s.markerDepth = 1
	}
}

func (s *skipState) end(z *html.Tokenizer) {
	name, _ := z.TagName()
	if s.rawText != 0 {
		if atom.Lookup(name) == s.rawText {
			s.rawText = 0
		}
		return
	}
	if s.markerDepth > 0 && string(name) == s.markerName {
		s.markerDepth--
	}
}

func isMarker(z *html.Tokenizer) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "class" {
			for _, f := range strings.Fields(string(val)) {
				if f == markerClass {
					return true
				}
			}
		}
		if !more {
			return false
		}
	}
}

// normalizeNames drops empty and duplicate names, keeping first-seen order.
func normalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// entityRef matches a character reference in raw text.
var entityRef = regexp.MustCompile(`&(?:#[0-9]+;?|#[xX][0-9a-fA-F]+;?|[a-zA-Z][a-zA-Z0-9]*;?)`)

// segment is a piece of raw text and its decoded form. Plain segments decode
// to themselves; reference segments are never split by a match.
type segment struct {
	raw, text       string
	rawPos, textPos int
	plain           bool
}

// decodeText splits a raw text token into plain and reference segments and
// returns the decoded text.
func decodeText(raw string) ([]segment, string) {
	var segs []segment
	var text strings.Builder
	add := func(r string, plain bool) {
		dec := r
		if !plain {
			dec = html.UnescapeString(r)
		}
		segs = append(segs, segment{raw: r, text: dec, textPos: text.Len(), plain: plain})
		text.WriteString(dec)
	}
	last := 0
	for _, loc := range entityRef.FindAllStringIndex(raw, -1) {
		if loc[0] > last {
			add(raw[last:loc[0]], true)
		}
		add(raw[loc[0]:loc[1]], false)
		last = loc[1]
	}
	if last < len(raw) {
		add(raw[last:], true)
	}
	pos := 0
	for i := range segs {
		segs[i].rawPos = pos
		pos += len(segs[i].raw)
	}
	return segs, text.String()
}

// rawOffset maps a decoded offset to the raw offset. It reports false when p
// falls inside a character reference.
func rawOffset(segs []segment, rawLen, p int) (int, bool) {
	for _, s := range segs {
		if p < s.textPos || p >= s.textPos+len(s.text) {
			continue
		}
		if s.plain {
			return s.rawPos + p - s.textPos, true
		}
		return s.rawPos, p == s.textPos
	}
	return rawLen, true
}

type span struct{ start, end int }

// tagText wraps the matches of every pattern in one raw text token. Names are
// applied in order; a match overlapping an earlier one is dropped.
func tagText(raw string, names []string, patterns []*regexp.Regexp, stats map[string]int) (string, int) {
	segs, text := decodeText(raw)
	var taken []span
	total := 0
	for i, re := range patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			start, ok := rawOffset(segs, len(raw), loc[0])
			if !ok {
				continue
			}
			end, ok := rawOffset(segs, len(raw), loc[1])
			if !ok {
				continue
			}
			if overlaps(taken, start, end) {
				continue
			}
			taken = insertSpan(taken, span{start, end})
			stats[names[i]]++
			total++
		}
	}
	if total == 0 {
		return raw, 0
	}

	var b strings.Builder
	last := 0
	for _, sp := range taken {
		b.WriteString(raw[last:sp.start])
		b.WriteString(wrap(raw[sp.start:sp.end]))
		last = sp.end
	}
	b.WriteString(raw[last:])
	return b.String(), total
}

func overlaps(taken []span, start, end int) bool {
	for _, sp := range taken {
		if start < sp.end && sp.start < end {
			return true
		}
	}
	return false
}

// insertSpan keeps taken sorted by start.
func insertSpan(taken []span, sp span) []span {
	i := len(taken)
	for i > 0 && taken[i-1].start > sp.start {
		i--
	}
	taken = append(taken, span{})
	copy(taken[i+1:], taken[i:])
	taken[i] = sp
	return taken
}
