package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokKeyword
	tokOp
	tokLParen
	tokRParen
	tokAssign
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return strconv.Quote(t.text)
}

var keywords = map[string]string{
	"and":   "and",
	"or":    "or",
	"not":   "not",
	"true":  "true",
	"True":  "true",
	"false": "false",
	"False": "false",
	"null":  "null",
	"None":  "null",
}

func lex(src string) ([]token, error) {
	var out []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++

		case c >= '0' && c <= '9' || c == '.' && i+1 < len(src) && isDigit(src[i+1]):
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(src[j]) {
					i = j
					for i < len(src) && isDigit(src[i]) {
						i++
					}
				}
			}
			f, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at %d", src[start:i], start)
			}
			out = append(out, token{kind: tokNumber, text: src[start:i], num: f, pos: start})

		case c == '\'' || c == '"':
			start := i
			var sb strings.Builder
			i++
			closed := false
			for i < len(src) {
				if src[i] == '\\' && i+1 < len(src) {
					sb.WriteByte(src[i+1])
					i += 2
					continue
				}
				if rune(src[i]) == c {
					closed = true
					i++
					break
				}
				sb.WriteByte(src[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string at %d", start)
			}
			out = append(out, token{kind: tokString, text: sb.String(), pos: start})

		case c == '`':
			start := i
			end := strings.IndexByte(src[i+1:], '`')
			if end < 0 {
				return nil, fmt.Errorf("unterminated quoted column at %d", start)
			}
			name := src[i+1 : i+1+end]
			if name == "" {
				return nil, fmt.Errorf("empty quoted column at %d", start)
			}
			i += end + 2
			out = append(out, token{kind: tokIdent, text: name, pos: start})

		case isIdentStart(src[i]):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			word := src[start:i]
			if kw, ok := keywords[word]; ok {
				out = append(out, token{kind: tokKeyword, text: kw, pos: start})
				continue
			}
			out = append(out, token{kind: tokIdent, text: word, pos: start})

		case c == '(':
			out = append(out, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			out = append(out, token{kind: tokRParen, text: ")", pos: i})
			i++

		default:
			op, ok := matchOp(src[i:])
			if !ok {
				return nil, fmt.Errorf("unexpected character %q at %d", c, i)
			}
			kind := tokOp
			switch op {
			case "=":
				kind = tokAssign
			case "&":
				op = "and"
			case "|":
				op = "or"
			}
			out = append(out, token{kind: kind, text: op, pos: i})
			if op == "and" || op == "or" {
				i++
			} else {
				i += len(op)
			}
		}
	}

	out = append(out, token{kind: tokEOF, pos: len(src)})
	return out, nil
}

var operators = []string{"==", "!=", "<=", ">=", "<", ">", "+", "-", "*", "/", "%", "&", "|", "="}

func matchOp(s string) (string, bool) {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op, true
		}
	}
	return "", false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentStart(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b) || b == '.'
}
