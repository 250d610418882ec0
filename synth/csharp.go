package synth

import (
	"fmt"
	"regexp"
)

const csharpEntryClass = "Program"

var (
	csharpTypeDecl   = regexp.MustCompile(`(?m)^[ \t]*(?:\[[^\]\n]*\]\s*)*(?:(?:public|internal|private|protected|static|abstract|sealed|partial|readonly|unsafe|file)\s+)*(?:class|struct|interface|enum|record)\s+([A-Za-z_]\w*)`)
	csharpEntryPoint = regexp.MustCompile(`\bstatic\s+(?:async\s+)?(?:void|int|Task(?:\s*<\s*int\s*>)?)\s+Main\s*\(`)
	csharpMethod     = regexp.MustCompile(`(?m)^[ \t]*(?:\[[^\]\n]*\]\s*)*(?:(?:public|private|protected|internal|static|async|virtual|override|abstract|sealed|unsafe|extern|new|partial)\s+)*([\w.]+(?:<[^;{}()]*>)?(?:\[[,\s]*\])*\??)\s+([A-Za-z_]\w*)\s*(?:<[^<>(){};]*>)?\s*\([^;{}]*\)\s*(?:where\s+[^{;]+)?(?:\{|=>)`)
	csharpUsing      = regexp.MustCompile(`^\s*using\s+(?:static\s+)?[\w.]+(?:\s*=\s*[\w.<>,\s]+)?\s*;\s*$`)

	csharpKeywords = keywordSet("if", "for", "foreach", "while", "switch", "catch", "else", "return",
		"new", "throw", "case", "do", "try", "using", "lock", "await", "yield", "fixed")

	csharpDefaultUsings = []string{
		"using System;",
		"using System.Collections.Generic;",
		"using System.Linq;",
		"using System.Text;",
	}
)

func classifyCSharp(code string) Classification {
	if m := csharpTypeDecl.FindStringSubmatch(code); m != nil {
		return Classification{
			Kind:          FullProgram,
			HasEntryPoint: csharpEntryPoint.MatchString(code),
			TypeName:      m[1],
		}
	}
	if signatureMatches(csharpMethod, code, csharpKeywords) {
		return Classification{Kind: FunctionFragment}
	}
	return Classification{Kind: StatementFragment}
}

// synthesizeCSharp never renames: the C# compilers do not tie type names to
// file names, so a full program with its own Main passes through.
func synthesizeCSharp(code string, cls Classification) string {
	switch {
	case cls.Kind == FullProgram && cls.HasEntryPoint:
		return code
	case cls.Kind == FullProgram:
		usings, rest := hoist(code, csharpUsing)
		return fmt.Sprintf("%s\n\n%s\n\npublic static class %s\n{\n%s\n}\n",
			preamble(csharpDefaultUsings, usings), trimBlankLines(rest), csharpEntryClass, csharpLoadedMain())
	case cls.Kind == FunctionFragment:
		usings, rest := hoist(code, csharpUsing)
		return fmt.Sprintf("%s\n\npublic class %s\n{\n%s\n\n%s\n}\n",
			preamble(csharpDefaultUsings, usings), csharpEntryClass,
			indent(trimBlankLines(rest), "    "), csharpLoadedMain())
	default:
		usings, rest := hoist(code, csharpUsing)
		return fmt.Sprintf("%s\n\npublic class %s\n{\n    public static void Main(string[] args)\n    {\n%s\n    }\n}\n",
			preamble(csharpDefaultUsings, usings), csharpEntryClass,
			indent(trimBlankLines(rest), "        "))
	}
}

func csharpLoadedMain() string {
	return "    public static void Main(string[] args)\n" +
		"    {\n" +
		"        Console.WriteLine(\"" + loadedMessage + "\");\n" +
		"    }"
}
