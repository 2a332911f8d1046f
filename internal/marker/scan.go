package marker

import "strings"

// Extract scans generated text for recognized directive tags, returning the
// directives in document order and the narrative with every recognized tag
// removed. Unrecognized or malformed bracketed text is left untouched.
// Cleaning is a fixed point: Extract on already-clean text returns it as is.
func Extract(text string) ([]Directive, string) {
	var dirs []Directive
	var spans []span

	for i := 0; i < len(text); {
		open := strings.IndexByte(text[i:], '[')
		if open < 0 {
			break
		}
		start := i + open
		d, end, ok := parseTag(text, start)
		if !ok {
			i = start + 1
			continue
		}
		dirs = append(dirs, d)
		spans = append(spans, span{start: start, end: end})
		i = end
	}
	return dirs, strip(text, spans)
}

// Clean returns only the cleaned narrative.
func Clean(text string) string {
	_, out := Extract(text)
	return out
}

type span struct {
	start, end int
}

// parseTag attempts to read one directive beginning at the '[' at text[at].
// The grammar is deliberately strict: TAG is upper-case with underscores, each
// field is Ident="value" with backslash-escaped quotes inside the value. Any
// deviation means the bracket is ordinary prose and is skipped, not an error.
func parseTag(text string, at int) (Directive, int, bool) {
	p := at + 1
	nameStart := p
	for p < len(text) && (isTagChar(text[p])) {
		p++
	}
	name := text[nameStart:p]
	kind, ok := recognized[name]
	if !ok || p >= len(text) {
		return Directive{}, 0, false
	}

	// Bare form: [TAG]
	if text[p] == ']' {
		return Directive{Kind: kind, Fields: map[string]string{}}, p + 1, true
	}
	if text[p] != ':' {
		return Directive{}, 0, false
	}
	p++

	fields := map[string]string{}
	for {
		p = skipSpaces(text, p)
		if p >= len(text) {
			return Directive{}, 0, false
		}
		if text[p] == ']' {
			return Directive{Kind: kind, Fields: fields}, p + 1, true
		}
		key, next, ok := parseIdent(text, p)
		if !ok {
			return Directive{}, 0, false
		}
		p = next
		if p >= len(text) || text[p] != '=' {
			return Directive{}, 0, false
		}
		val, next, ok := parseQuoted(text, p+1)
		if !ok {
			return Directive{}, 0, false
		}
		fields[key] = val
		p = next
	}
}

func parseIdent(text string, at int) (string, int, bool) {
	p := at
	for p < len(text) && (isAlphaNum(text[p])) {
		p++
	}
	if p == at {
		return "", 0, false
	}
	return text[at:p], p, true
}

func parseQuoted(text string, at int) (string, int, bool) {
	if at >= len(text) || text[at] != '"' {
		return "", 0, false
	}
	var b strings.Builder
	p := at + 1
	for p < len(text) {
		switch text[p] {
		case '\\':
			if p+1 < len(text) && (text[p+1] == '"' || text[p+1] == '\\') {
				b.WriteByte(text[p+1])
				p += 2
				continue
			}
			b.WriteByte(text[p])
			p++
		case '"':
			return b.String(), p + 1, true
		case '\n':
			// values never span lines
			return "", 0, false
		default:
			b.WriteByte(text[p])
			p++
		}
	}
	return "", 0, false
}

func skipSpaces(text string, at int) int {
	for at < len(text) && (text[at] == ' ' || text[at] == '\t') {
		at++
	}
	return at
}

func isTagChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlphaNum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// strip removes the given spans along with any horizontal whitespace that
// directly precedes them, then drops lines the removal left empty.
func strip(text string, spans []span) string {
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, s := range spans {
		start := s.start
		for start > prev && (text[start-1] == ' ' || text[start-1] == '\t') {
			start--
		}
		b.WriteString(text[prev:start])
		prev = s.end
	}
	b.WriteString(text[prev:])
	return dropBlankRuns(b.String())
}

// dropBlankRuns collapses runs of blank lines left behind by tag removal and
// trims outer whitespace.
func dropBlankRuns(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
