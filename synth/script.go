package synth

import (
	"regexp"
)

// Interpreted languages need no enclosing type, so statement fragments run
// as written after dedenting. Only declaration-only submissions gain an
// entry point that announces the load.

var (
	pythonEntryPoint = regexp.MustCompile(`(?m)^if\s+__name__\s*==\s*['"]__main__['"]\s*:`)
	pythonClass      = regexp.MustCompile(`(?m)^class\s+([A-Za-z_]\w*)`)
	pythonFunction   = regexp.MustCompile(`(?m)^(?:async\s+)?def\s+[A-Za-z_]\w*\s*\(`)
	pythonDecl       = regexp.MustCompile(`^(?:(?:async\s+)?def\s|class\s|import\s|from\s|@)`)

	jsEntryPoint = regexp.MustCompile(`\brequire\.main\s*===?\s*module\b`)
	jsClass      = regexp.MustCompile(`(?m)^(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$][\w$]*)`)
	jsFunction   = regexp.MustCompile(`(?m)^(?:(?:export\s+)?(?:default\s+)?(?:async\s+)?function\b|(?:const|let|var)\s+[\w$]+\s*=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*=>|[\w$]+\s*=>))`)
	jsDecl       = regexp.MustCompile(`^(?:(?:export\s+)?(?:default\s+)?(?:async\s+)?function\b|(?:export\s+)?(?:default\s+)?class\b|(?:const|let|var)\s+[\w$]+\s*=\s*(?:async\s+)?(?:function\b|class\b|\([^)]*\)\s*=>|[\w$]+\s*=>|require\s*\()|import\b|module\.exports\b|exports\.|['"]use strict['"])`)
)

func classifyScript(code string, entry, class, function, decl *regexp.Regexp, comments ...string) Classification {
	if entry.MatchString(code) {
		return Classification{Kind: FullProgram, HasEntryPoint: true}
	}
	if !declarationsOnly(code, decl, comments...) {
		return Classification{Kind: StatementFragment}
	}
	if m := class.FindStringSubmatch(code); m != nil {
		return Classification{Kind: FullProgram, TypeName: m[1]}
	}
	if function.MatchString(code) {
		return Classification{Kind: FunctionFragment}
	}
	// Imports alone.
	return Classification{Kind: StatementFragment}
}

func classifyPython(code string) Classification {
	return classifyScript(code, pythonEntryPoint, pythonClass, pythonFunction, pythonDecl, "#")
}

func classifyJavaScript(code string) Classification {
	return classifyScript(code, jsEntryPoint, jsClass, jsFunction, jsDecl, "//", "/*", "*")
}

func synthesizePython(code string, cls Classification) string {
	switch {
	case cls.Kind == StatementFragment:
		return dedent(code)
	case cls.HasEntryPoint:
		return code
	default:
		return trimBlankLines(code) +
			"\n\n\nif __name__ == \"__main__\":\n    print(\"" + loadedMessage + "\")\n"
	}
}

func synthesizeJavaScript(code string, cls Classification) string {
	switch {
	case cls.Kind == StatementFragment:
		return dedent(code)
	case cls.HasEntryPoint:
		return code
	default:
		return trimBlankLines(code) + "\n\nconsole.log(\"" + loadedMessage + "\");\n"
	}
}
