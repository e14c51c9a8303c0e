package assembler

import "strings"

type formattedLine struct {
	labels    string
	statement string
	comment   string
	raw       string // used verbatim when the line does not lex
}

// Format re-indents source so that every statement starts in the column
// after the longest label. Directives without labels stay flush left.
// Lines that do not lex are left untouched.
func Format(source string) string {
	lines := strings.Split(source, "\n")
	formatted := make([]formattedLine, len(lines))
	maxLabelLength := 0

	for i, line := range lines {
		toks, err := lexLine(line, i)
		if err != nil {
			formatted[i] = formattedLine{raw: line}
			continue
		}

		var labels []string
		stmtStart := 0
		for stmtStart+1 < len(toks) && toks[stmtStart+1].kind == tokenColon {
			name := toks[stmtStart].text
			labels = append(labels, name+":")
			if len(name) > maxLabelLength {
				maxLabelLength = len(name)
			}
			stmtStart += 2
		}

		commentStart := 0
		if len(toks) > 0 {
			commentStart = toks[len(toks)-1].end
		}
		formatted[i] = formattedLine{
			labels:    strings.Join(labels, " "),
			statement: joinTokens(toks[stmtStart:]),
			comment:   strings.TrimSpace(line[commentStart:]),
		}
	}

	indent := maxLabelLength + 2
	out := make([]string, len(lines))
	for i, f := range formatted {
		switch {
		case f.raw != "" || (f.labels == "" && f.statement == "" && f.comment == ""):
			out[i] = f.raw
			continue
		case f.labels != "":
			out[i] = f.labels
			if f.statement != "" {
				out[i] += strings.Repeat(" ", max(1, indent-len(f.labels))) + f.statement
			}
		case strings.HasPrefix(f.statement, "."):
			out[i] = f.statement
		default:
			out[i] = strings.Repeat(" ", indent) + f.statement
		}

		if f.comment != "" {
			if strings.TrimSpace(out[i]) == "" {
				out[i] += f.comment
			} else {
				out[i] += " " + f.comment
			}
		}
	}
	return strings.Join(out, "\n")
}

func joinTokens(toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			prev := toks[i-1]
			tight := t.kind == tokenComma || t.kind == tokenRParen || prev.kind == tokenLParen ||
				(t.kind == tokenLParen && prev.kind != tokenComma)
			if !tight {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.text)
	}
	return b.String()
}
