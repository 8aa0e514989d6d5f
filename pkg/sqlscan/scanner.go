// Package sqlscan splits SQL script text into terminator-delimited statements
// and tags each with the statement shape it starts with.
//
// Only the shapes the provisioning templates contain are recognised. The
// scanner tracks single and double quotes, line comments and block comments
// so that a terminator inside any of them does not end a statement.
package sqlscan

import (
	"strings"
	"unicode"
)

// Terminator ends a statement.
const Terminator = ';'

// Kind identifies the leading shape of a statement.
type Kind int

// Kind constants for the recognised statement shapes.
const (
	KindOther       Kind = iota // Anything not listed below
	KindCreateUser              // CREATE USER
	KindCreateTable             // CREATE TABLE
	KindCreateIndex             // CREATE [UNIQUE] INDEX
	KindGrant                   // GRANT
	KindDrop                    // DROP
)

func (k Kind) String() string {
	switch k {
	case KindOther:
		return "OTHER"
	case KindCreateUser:
		return "CREATE_USER"
	case KindCreateTable:
		return "CREATE_TABLE"
	case KindCreateIndex:
		return "CREATE_INDEX"
	case KindGrant:
		return "GRANT"
	case KindDrop:
		return "DROP"
	default:
		return "UNKNOWN"
	}
}

// Statement is one terminator-delimited segment of a script.
type Statement struct {
	Kind Kind
	// Text is the raw segment, including any whitespace and comments before
	// the statement, without the terminator.
	Text string
	// Line is the 1-based line of the first non-blank character.
	Line int
	// Terminated is false only for trailing text after the last terminator.
	Terminated bool
	// Destructive is set when the DROP keyword appears anywhere outside a
	// comment. Quoted text counts, since dynamic SQL carries its statement in
	// a literal.
	Destructive bool
}

// String renders the statement as it appeared in the input.
func (s Statement) String() string {
	if s.Terminated {
		return s.Text + string(Terminator)
	}
	return s.Text
}

// Body returns the statement text with leading comments and surrounding
// whitespace removed.
func (s Statement) Body() string {
	return strings.TrimSpace(skipComments(s.Text))
}

type state int

const (
	stateCode state = iota
	stateSingle
	stateDouble
	stateLineComment
	stateBlockComment
)

// Scan splits input into statements. Segments holding only whitespace are
// dropped; every other byte of input belongs to exactly one statement, so
// joining the String forms of the result reproduces the input minus those
// blank segments.
func Scan(input string) []Statement {
	var (
		out   []Statement
		st    = stateCode
		start = 0
		line  = 1
		first = 1
	)

	emit := func(end int, terminated bool) {
		text := input[start:end]
		trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
		if strings.TrimSpace(trimmed) != "" {
			out = append(out, Statement{
				Kind:        classify(text),
				Text:        text,
				Line:        first + strings.Count(text[:len(text)-len(trimmed)], "\n"),
				Terminated:  terminated,
				Destructive: containsDrop(text),
			})
		}
	}

	for i := 0; i < len(input); i++ {
		c := input[i]
		if c == '\n' {
			line++
		}
		switch st {
		case stateCode:
			switch {
			case c == Terminator:
				emit(i, true)
				start, first = i+1, line
			case c == '\'':
				st = stateSingle
			case c == '"':
				st = stateDouble
			case c == '-' && i+1 < len(input) && input[i+1] == '-':
				st = stateLineComment
				i++
			case c == '/' && i+1 < len(input) && input[i+1] == '*':
				st = stateBlockComment
				i++
			}
		case stateSingle:
			if c == '\'' {
				st = stateCode
			}
		case stateDouble:
			if c == '"' {
				st = stateCode
			}
		case stateLineComment:
			if c == '\n' {
				st = stateCode
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(input) && input[i+1] == '/' {
				st = stateCode
				i++
			}
		}
	}
	emit(len(input), false)
	return out
}

// skipComments drops leading whitespace and comments.
func skipComments(text string) string {
	for {
		text = strings.TrimLeftFunc(text, unicode.IsSpace)
		switch {
		case strings.HasPrefix(text, "--"):
			nl := strings.IndexByte(text, '\n')
			if nl < 0 {
				return ""
			}
			text = text[nl+1:]
		case strings.HasPrefix(text, "/*"):
			end := strings.Index(text[2:], "*/")
			if end < 0 {
				return ""
			}
			text = text[end+4:]
		default:
			return text
		}
	}
}

// containsDrop reports whether DROP occurs as a whole word in text once
// comments are blanked out.
func containsDrop(text string) bool {
	var b strings.Builder
	st := stateCode
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch st {
		case stateCode, stateSingle, stateDouble:
			switch {
			case st == stateCode && c == '-' && i+1 < len(text) && text[i+1] == '-':
				st = stateLineComment
				i++
				b.WriteByte(' ')
				continue
			case st == stateCode && c == '/' && i+1 < len(text) && text[i+1] == '*':
				st = stateBlockComment
				i++
				b.WriteByte(' ')
				continue
			case st == stateCode && c == '\'':
				st = stateSingle
			case st == stateCode && c == '"':
				st = stateDouble
			case st == stateSingle && c == '\'', st == stateDouble && c == '"':
				st = stateCode
			}
			// Quote characters separate words like whitespace does.
			if c == '\'' || c == '"' {
				c = ' '
			}
			b.WriteByte(c)
		case stateLineComment:
			if c == '\n' {
				st = stateCode
				b.WriteByte('\n')
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				st = stateCode
				i++
			}
		}
	}
	for _, w := range strings.FieldsFunc(b.String(), notWordByte) {
		if strings.EqualFold(w, "DROP") {
			return true
		}
	}
	return false
}

func notWordByte(r rune) bool {
	return !(r == '_' || r == '$' || r == '#' || unicode.IsLetter(r) || unicode.IsDigit(r))
}

func classify(text string) Kind {
	words := strings.Fields(strings.ToUpper(skipComments(text)))
	if len(words) == 0 {
		return KindOther
	}
	switch words[0] {
	case "DROP":
		return KindDrop
	case "GRANT":
		return KindGrant
	case "CREATE":
		if len(words) < 2 {
			return KindOther
		}
		rest := words[1:]
		if rest[0] == "UNIQUE" && len(rest) > 1 {
			rest = rest[1:]
		}
		switch {
		case words[1] == "USER":
			return KindCreateUser
		case words[1] == "TABLE":
			return KindCreateTable
		case rest[0] == "INDEX":
			return KindCreateIndex
		}
	}
	return KindOther
}
