package assembler

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenNumber
	tokenString
	tokenComma
	tokenColon
	tokenLParen
	tokenRParen
)

type token struct {
	kind  tokenKind
	text  string
	start int // byte column of the first character
	end   int
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '.' || c == '$'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// lexLine splits one source line into tokens. Comments (#, ; or //) end the
// line unless they appear inside a string literal.
func lexLine(line string, lineNum int) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f':
			i++
		case c == '#' || c == ';' || (c == '/' && i+1 < len(line) && line[i+1] == '/'):
			return tokens, nil
		case c == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ",", start: i, end: i + 1})
			i++
		case c == ':':
			tokens = append(tokens, token{kind: tokenColon, text: ":", start: i, end: i + 1})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", start: i, end: i + 1})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", start: i, end: i + 1})
			i++
		case c == '"':
			j := i + 1
			closed := false
			for j < len(line) {
				if line[j] == '\\' && j+1 < len(line) {
					j += 2
					continue
				}
				if line[j] == '"' {
					closed = true
					j++
					break
				}
				j++
			}
			if !closed {
				return nil, Errors.InvalidStringLiteral(line[i:], "missing closing quote", lineRange(lineNum, i, len(line)))
			}
			tokens = append(tokens, token{kind: tokenString, text: line[i:j], start: i, end: j})
			i = j
		case isDigit(c) || ((c == '-' || c == '+') && i+1 < len(line) && isDigit(line[i+1])):
			j := i + 1
			for j < len(line) && isIdentChar(line[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: line[i:j], start: i, end: j})
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(line) && isIdentChar(line[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: line[i:j], start: i, end: j})
			i = j
		default:
			return nil, Errors.UnexpectedToken("operand", string(c), lineRange(lineNum, i, i+1))
		}
	}
	return tokens, nil
}

// unquote decodes a string token including its surrounding quotes.
func unquote(tok token, lineNum int) ([]byte, error) {
	body := tok.text[1 : len(tok.text)-1]
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			out = append(out, body[i])
			continue
		}
		i++
		switch body[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '0':
			out = append(out, 0)
		case '\\':
			out = append(out, '\\')
		case '"':
			out = append(out, '"')
		default:
			return nil, Errors.InvalidStringLiteral(tok.text, "unknown escape \\"+string(body[i]), lineRange(lineNum, tok.start, tok.end))
		}
	}
	return out, nil
}
