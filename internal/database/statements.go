package database

import (
	"regexp"
	"strings"
)

var quotedRe = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`")

// SplitStatements breaks a SQL script into individually executable
// statements. Comments are stripped first, and a ';' inside a quoted
// string literal does not end a statement. Only statements left empty by
// the stripping are discarded.
func SplitStatements(script string) []string {
	script = stripComments(script)

	quoted := make([]bool, len(script))
	for _, m := range quotedRe.FindAllStringIndex(script, -1) {
		for i := m[0]; i < m[1]; i++ {
			quoted[i] = true
		}
	}

	var statements []string
	var current strings.Builder
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i, r := range script {
		if r == ';' && !quoted[i] {
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()

	return statements
}

// stripComments removes -- line comments and /* */ block comments. Quoted
// string literals pass through verbatim, so comment markers inside a
// literal survive and a quote character inside a comment cannot open a
// phantom literal. A statement sharing a line with a comment keeps its SQL
// text.
func stripComments(script string) string {
	var out strings.Builder
	out.Grow(len(script))

	for i := 0; i < len(script); {
		c := script[i]

		if c == '\'' || c == '"' || c == '`' {
			end := literalEnd(script, i)
			out.WriteString(script[i:end])
			i = end
			continue
		}

		if c == '-' && i+1 < len(script) && script[i+1] == '-' {
			for i < len(script) && script[i] != '\n' {
				i++
			}
			continue
		}

		if c == '/' && i+1 < len(script) && script[i+1] == '*' {
			off := strings.Index(script[i+2:], "*/")
			if off < 0 {
				// Unterminated block comment swallows the rest.
				return out.String()
			}
			i += off + 4
			continue
		}

		out.WriteByte(c)
		i++
	}
	return out.String()
}

// literalEnd returns the index just past the string literal opening at
// start. A doubled quote character is an escape, not a terminator; an
// unterminated literal runs to the end of the script.
func literalEnd(script string, start int) int {
	q := script[start]
	for i := start + 1; i < len(script); i++ {
		if script[i] != q {
			continue
		}
		if i+1 < len(script) && script[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(script)
}
