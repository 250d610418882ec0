package synth

import (
	"fmt"
	"regexp"
)

var (
	cppEntryPoint = regexp.MustCompile(`(?m)^[ \t]*(?:int|auto|signed(?:\s+int)?)\s+main\s*\(`)
	cppTypeDecl   = regexp.MustCompile(`(?m)^[ \t]*(?:template\s*<[^>]*>\s*)?(?:class|struct)\s+([A-Za-z_]\w*)\s*(?:final\s*)?(?::[^;{]*)?\{`)
	cppFunction   = regexp.MustCompile(`(?m)^[ \t]*(?:template\s*<[^>]*>\s*)?(?:(?:static|inline|constexpr|virtual|extern|friend|explicit)\s+)*((?:(?:const|unsigned|signed|long|short)\s+)*[\w:]+(?:\s*<[^;{}()]*>)?)(?:\s*[*&]+\s*|\s+)([A-Za-z_~][\w:]*)\s*\([^;{}]*\)\s*(?:const\s*)?(?:noexcept\s*)?(?:override\s*)?(?:->\s*[^{;]+)?\{`)
	cppInclude    = regexp.MustCompile(`^\s*#\s*include\b`)

	cppKeywords = keywordSet("if", "for", "while", "switch", "catch", "return", "else", "do",
		"new", "delete", "throw", "case", "goto", "sizeof")

	cppDefaultIncludes = []string{
		"#include <algorithm>",
		"#include <iostream>",
		"#include <map>",
		"#include <numeric>",
		"#include <set>",
		"#include <sstream>",
		"#include <string>",
		"#include <unordered_map>",
		"#include <unordered_set>",
		"#include <vector>",
	}
)

func classifyCPP(code string) Classification {
	if cppEntryPoint.MatchString(code) {
		cls := Classification{Kind: FullProgram, HasEntryPoint: true}
		if m := cppTypeDecl.FindStringSubmatch(code); m != nil {
			cls.TypeName = m[1]
		}
		return cls
	}
	if m := cppTypeDecl.FindStringSubmatch(code); m != nil {
		return Classification{Kind: FullProgram, TypeName: m[1]}
	}
	if signatureMatches(cppFunction, code, cppKeywords) {
		return Classification{Kind: FunctionFragment}
	}
	return Classification{Kind: StatementFragment}
}

func synthesizeCPP(code string, cls Classification) string {
	if cls.Kind == FullProgram && cls.HasEntryPoint {
		return code
	}

	includes, rest := hoist(code, cppInclude)
	head := preamble(cppDefaultIncludes, includes) + "\n\nusing namespace std;"
	if cls.Kind == StatementFragment {
		return fmt.Sprintf("%s\n\nint main() {\n%s\n    return 0;\n}\n",
			head, indent(trimBlankLines(rest), "    "))
	}
	return fmt.Sprintf("%s\n\n%s\n\nint main() {\n    std::cout << \"%s\" << std::endl;\n    return 0;\n}\n",
		head, trimBlankLines(rest), loadedMessage)
}
