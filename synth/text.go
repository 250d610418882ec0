package synth

import (
	"regexp"
	"slices"
	"strings"
)

// loadedMessage is printed by injected entry points. The candidate's own
// functions are never invoked automatically.
const loadedMessage = "Solution loaded. Add test calls or submit."

func normalizeNewlines(code string) string {
	return strings.ReplaceAll(code, "\r\n", "\n")
}

// trimBlankLines drops leading and trailing blank lines and trailing whitespace.
func trimBlankLines(code string) string {
	lines := strings.Split(code, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.TrimRight(strings.Join(lines[start:end], "\n"), " \t")
}

// indent prefixes every non-blank line.
func indent(code, prefix string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// dedent removes the whitespace prefix common to all non-blank lines.
// Whitespace-only lines become empty.
func dedent(code string) string {
	lines := strings.Split(code, "\n")
	margin := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ws := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			margin, first = ws, false
			continue
		}
		margin = commonPrefix(margin, ws)
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// hoist pulls every line matching re out of code, returning those lines
// trimmed and the remaining code.
func hoist(code string, re *regexp.Regexp) ([]string, string) {
	var hoisted, rest []string
	for _, line := range strings.Split(code, "\n") {
		if re.MatchString(line) {
			hoisted = append(hoisted, strings.TrimSpace(line))
			continue
		}
		rest = append(rest, line)
	}
	return hoisted, strings.Join(rest, "\n")
}

// preamble joins defaults and hoisted lines, dropping exact duplicates.
func preamble(defaults, hoisted []string) string {
	lines := slices.Clone(defaults)
	for _, h := range hoisted {
		if !slices.Contains(lines, h) {
			lines = append(lines, h)
		}
	}
	return strings.Join(lines, "\n")
}

// declarationsOnly reports whether every unindented, non-comment line of
// code matches decl. Blank lines, indented lines and lines that only close
// a bracket are continuations and ignored.
func declarationsOnly(code string, decl *regexp.Regexp, commentPrefixes ...string) bool {
	seen := false
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}
		if strings.ContainsRune("})]", rune(line[0])) {
			continue
		}
		if hasAnyPrefix(line, commentPrefixes) {
			continue
		}
		if !decl.MatchString(line) {
			return false
		}
		seen = true
	}
	return seen
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
