// Package synth turns submitted source text into a complete program.
//
// Classification and synthesis are heuristic text transformations driven by
// per-language regular expressions, not parsers. Both are pure: the same
// language and code always produce the same Classification and the same
// program text. When a heuristic guesses wrong the synthesized program simply
// fails to compile, and that failure reaches the caller as an ordinary
// compile error.
package synth

import (
	"regexp"
	"strings"

	"github.com/isdmx/coderunner/language"
)

// Kind is how much wrapping a submission needs.
type Kind int

const (
	// FullProgram declares its own top-level type or entry point.
	FullProgram Kind = iota
	// FunctionFragment is one or more function or method definitions with no enclosing type.
	FunctionFragment
	// StatementFragment is anything else: bare statements that become an entry point body.
	StatementFragment
)

func (k Kind) String() string {
	switch k {
	case FullProgram:
		return "full_program"
	case FunctionFragment:
		return "function_fragment"
	case StatementFragment:
		return "statement_fragment"
	default:
		return "unknown"
	}
}

// Classification is the result of inspecting a submission.
type Classification struct {
	Kind Kind
	// HasEntryPoint is set for a FullProgram that declares its own entry
	// point. A FullProgram without one is a declaration that gets an
	// injected entry point during synthesis.
	HasEntryPoint bool
	// TypeName is the first declared type, when there is one.
	TypeName string
}

type rules struct {
	classify   func(code string) Classification
	synthesize func(code string, cls Classification) string
}

var byLanguage = map[string]rules{
	language.Python:     {classify: classifyPython, synthesize: synthesizePython},
	language.JavaScript: {classify: classifyJavaScript, synthesize: synthesizeJavaScript},
	language.Java:       {classify: classifyJava, synthesize: synthesizeJava},
	language.CSharp:     {classify: classifyCSharp, synthesize: synthesizeCSharp},
	language.CPP:        {classify: classifyCPP, synthesize: synthesizeCPP},
}

// Classify inspects code written in the canonical language lang. Unknown
// languages classify as StatementFragment.
func Classify(lang, code string) Classification {
	r, ok := byLanguage[lang]
	if !ok {
		return Classification{Kind: StatementFragment}
	}
	return r.classify(normalizeNewlines(code))
}

// Synthesize produces the final program text for code under cls. Unknown
// languages are returned with normalized line endings and nothing else.
func Synthesize(lang, code string, cls Classification) string {
	code = normalizeNewlines(code)
	r, ok := byLanguage[lang]
	if !ok {
		return code
	}
	return r.synthesize(code, cls)
}

// Program classifies and synthesizes in one step.
func Program(lang, code string) (Classification, string) {
	cls := Classify(lang, code)
	return cls, Synthesize(lang, code, cls)
}

// signatureMatches reports whether re finds a definition whose type and name
// captures are not control-flow keywords.
func signatureMatches(re *regexp.Regexp, code string, keywords map[string]bool) bool {
	for _, m := range re.FindAllStringSubmatch(code, -1) {
		typ := strings.TrimSpace(m[1])
		if keywords[typ] || keywords[m[2]] {
			continue
		}
		return true
	}
	return false
}

func keywordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
