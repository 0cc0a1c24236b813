package resolver

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// StatementExtractor pulls import and declaration names out of raw source text.
// Both methods return names deduplicated in order of first appearance.
type StatementExtractor interface {
	Imports(content string) []string
	Declarations(content string) []string
}

// CSharpExtractor recognises using directives and namespace declarations.
// It is a statement scanner, not a parser: comments and string literals are
// skipped and everything else is split on ; { } ] and newlines.
type CSharpExtractor struct {
	ignored map[string]bool
}

var _ StatementExtractor = (*CSharpExtractor)(nil)

func NewCSharpExtractor(ignoredRoots []string) *CSharpExtractor {
	return &CSharpExtractor{ignored: rootSet(ignoredRoots)}
}

func (e *CSharpExtractor) Imports(content string) []string {
	var names orderedNames
	for _, st := range scanStatements(content) {
		name, ok := parseUsing(st)
		if !ok || IsKnownNonModule(name, e.ignored) {
			continue
		}
		names.add(name)
	}
	return names.list
}

func (e *CSharpExtractor) Declarations(content string) []string {
	var names orderedNames
	for _, st := range scanStatements(content) {
		if name, ok := parseNamespace(st); ok {
			names.add(name)
		}
	}
	return names.list
}

type orderedNames struct {
	seen map[string]bool
	list []string
}

func (o *orderedNames) add(name string) {
	if o.seen == nil {
		o.seen = make(map[string]bool)
	}
	if o.seen[name] {
		return
	}
	o.seen[name] = true
	o.list = append(o.list, name)
}

type statement struct {
	text string
	// term is the byte that ended the statement, or 0 at end of input.
	term byte
}

func scanStatements(content string) []statement {
	var (
		out []statement
		buf strings.Builder
	)
	flush := func(term byte) {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text == "" {
			return
		}
		out = append(out, statement{text: text, term: term})
	}

	n := len(content)
	for i := 0; i < n; i++ {
		c := content[i]
		switch {
		case c == '/' && i+1 < n && content[i+1] == '/':
			for i+1 < n && content[i+1] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && content[i+1] == '*':
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				i = n
				continue
			}
			buf.WriteByte(' ')
			i += 2 + end + 1
		case c == '"':
			i = skipString(content, i, isVerbatimStart(content, i))
			buf.WriteString(`""`)
		case c == '\'':
			i = skipChar(content, i)
			buf.WriteString(`''`)
		case c == ';' || c == '{' || c == '}' || c == ']' || c == '\n':
			flush(c)
		default:
			buf.WriteByte(c)
		}
	}
	flush(0)
	return out
}

func isVerbatimStart(content string, quote int) bool {
	for j := quote - 1; j >= 0 && j >= quote-2; j-- {
		switch content[j] {
		case '@':
			return true
		case '$':
			continue
		default:
			return false
		}
	}
	return false
}

// skipString returns the index of the closing quote of the literal opened at
// start, or the end of the line for an unterminated regular literal.
func skipString(content string, start int, verbatim bool) int {
	n := len(content)
	for i := start + 1; i < n; i++ {
		c := content[i]
		if verbatim {
			if c == '"' {
				if i+1 < n && content[i+1] == '"' {
					i++
					continue
				}
				return i
			}
			continue
		}
		switch c {
		case '\\':
			i++
		case '"':
			return i
		case '\n':
			return i - 1
		}
	}
	return n
}

func skipChar(content string, start int) int {
	n := len(content)
	for i := start + 1; i < n; i++ {
		switch content[i] {
		case '\\':
			i++
		case '\'':
			return i
		case '\n':
			return i - 1
		}
	}
	return n
}

func parseUsing(st statement) (string, bool) {
	if st.term != ';' {
		return "", false
	}
	text := st.text
	if rest, ok := cutKeyword(text, "global"); ok {
		text = rest
	}
	rest, ok := cutKeyword(text, "using")
	if !ok {
		return "", false
	}
	if r, ok := cutKeyword(rest, "static"); ok {
		rest = r
	}
	name, tail := readIdentifier(rest)
	if name == "" {
		return "", false
	}
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return name, true
	}
	if tail[0] != '=' {
		// using var x = ...; and similar local declarations.
		return "", false
	}
	target, tail := readIdentifier(strings.TrimSpace(tail[1:]))
	tail = strings.TrimSpace(tail)
	if target == "" {
		return "", false
	}
	if strings.HasPrefix(tail, "<") {
		// A closed generic type: only its namespace can name files.
		i := strings.LastIndex(target, ".")
		if i <= 0 {
			return "", false
		}
		return target[:i], true
	}
	if tail != "" {
		return "", false
	}
	return target, true
}

func parseNamespace(st statement) (string, bool) {
	rest, ok := cutKeyword(st.text, "namespace")
	if !ok {
		return "", false
	}
	name, _ := readIdentifier(rest)
	return name, name != ""
}

// cutKeyword strips kw from the front of s when it is followed by whitespace.
func cutKeyword(s, kw string) (string, bool) {
	if !strings.HasPrefix(s, kw) || len(s) == len(kw) {
		return s, false
	}
	r, _ := utf8.DecodeRuneInString(s[len(kw):])
	if !unicode.IsSpace(r) {
		return s, false
	}
	return strings.TrimLeftFunc(s[len(kw):], unicode.IsSpace), true
}

// readIdentifier reads a dotted identifier from the front of s, dropping a
// leading global:: qualifier.
func readIdentifier(s string) (string, string) {
	s = strings.TrimPrefix(s, "global::")
	end := 0
	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if r != '.' && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		end += size
	}
	return s[:end], s[end:]
}
