package synth

import (
	"fmt"
	"regexp"
	"strings"
)

// javaMainClass is the class name javac and the run command expect.
const javaMainClass = "Main"

var (
	javaTypeDecl   = regexp.MustCompile(`(?m)^[ \t]*(?:(?:public|protected|private|abstract|final|static|strictfp|sealed)\s+)*(?:class|interface|enum|record)\s+([A-Za-z_$][\w$]*)`)
	javaEntryPoint = regexp.MustCompile(`\bstatic\s+(?:final\s+)?void\s+main\s*\(`)
	javaMethod     = regexp.MustCompile(`(?m)^[ \t]*(?:@\w+(?:\([^)]*\))?\s+)*(?:(?:public|protected|private|static|final|abstract|synchronized|native)\s+)*(?:<[^>]+>\s+)?([\w$.]+(?:<[^;{}()]*>)?(?:\[\])*)\s+([A-Za-z_$][\w$]*)\s*\([^;{}]*\)\s*(?:throws\s+[\w$.,\s]+)?\{`)
	javaImport     = regexp.MustCompile(`^\s*import\s+(?:static\s+)?[\w$.*]+\s*;\s*$`)
	javaPublicType = regexp.MustCompile(`(?m)^public\s+((?:(?:abstract|final|sealed|strictfp)\s+)*(?:class|interface|enum|record)\s)`)

	javaKeywords = keywordSet("if", "for", "while", "switch", "catch", "else", "return", "new",
		"throw", "case", "do", "try", "synchronized", "yield")

	javaDefaultImports = []string{"import java.util.*;", "import java.io.*;"}
)

func classifyJava(code string) Classification {
	if m := javaTypeDecl.FindStringSubmatch(code); m != nil {
		return Classification{
			Kind:          FullProgram,
			HasEntryPoint: javaEntryPoint.MatchString(code),
			TypeName:      m[1],
		}
	}
	if signatureMatches(javaMethod, code, javaKeywords) {
		return Classification{Kind: FunctionFragment}
	}
	return Classification{Kind: StatementFragment}
}

func synthesizeJava(code string, cls Classification) string {
	switch {
	case cls.Kind == FullProgram && cls.HasEntryPoint:
		return renameFirstJavaType(code)
	case cls.Kind == FullProgram:
		imports, rest := hoist(code, javaImport)
		// Only Main may be public in Main.java.
		rest = javaPublicType.ReplaceAllString(trimBlankLines(rest), "${1}")
		return fmt.Sprintf("%s\n\n%s\n\npublic class %s {\n%s\n}\n",
			preamble(javaDefaultImports, imports), rest, javaMainClass, javaLoadedMain())
	case cls.Kind == FunctionFragment:
		imports, rest := hoist(code, javaImport)
		return fmt.Sprintf("%s\n\npublic class %s {\n%s\n\n%s\n}\n",
			preamble(javaDefaultImports, imports), javaMainClass,
			indent(trimBlankLines(rest), "    "), javaLoadedMain())
	default:
		imports, rest := hoist(code, javaImport)
		return fmt.Sprintf("%s\n\npublic class %s {\n    public static void main(String[] args) throws Exception {\n%s\n    }\n}\n",
			preamble(javaDefaultImports, imports), javaMainClass,
			indent(trimBlankLines(rest), "        "))
	}
}

func javaLoadedMain() string {
	return "    public static void main(String[] args) {\n" +
		"        System.out.println(\"" + loadedMessage + "\");\n" +
		"    }"
}

// renameFirstJavaType replaces the name of the first declared type with
// Main. Only that one occurrence changes; other references to the old name
// are left as written.
func renameFirstJavaType(code string) string {
	loc := javaTypeDecl.FindStringSubmatchIndex(code)
	if loc == nil || code[loc[2]:loc[3]] == javaMainClass {
		return code
	}
	var b strings.Builder
	b.WriteString(code[:loc[2]])
	b.WriteString(javaMainClass)
	b.WriteString(code[loc[3]:])
	return b.String()
}
