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
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokComma
	tokGreater
	tokLess
	tokGreaterEqual
	tokLessEqual
	tokEqual
	tokNotEqual
)

type token struct {
	kind  tokenKind
	text  string
	value float64
	pos   int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of formula"
	}
	return fmt.Sprintf("%q", t.text)
}

// lex splits a formula into tokens. Anything outside the closed token set is
// a lex error; there is no escape into a general evaluation primitive.
func lex(input string) ([]token, error) {
	tokens := make([]token, 0, 16)
	i := 0
	for i < len(input) {
		ch := rune(input[i])
		switch {
		case unicode.IsSpace(ch):
			i++
		case ch >= '0' && ch <= '9' || ch == '.':
			start := i
			for i < len(input) && (input[i] >= '0' && input[i] <= '9' || input[i] == '.') {
				i++
			}
			text := input[start:i]
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at position %d", text, start)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, value: v, pos: start})
		case unicode.IsLetter(ch) || ch == '_':
			start := i
			for i < len(input) && (isIdentChar(rune(input[i]))) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: input[start:i], pos: start})
		default:
			start := i
			kind, width, err := lexOperator(input[i:])
			if err != nil {
				return nil, fmt.Errorf("unexpected character %q at position %d", string(ch), start)
			}
			tokens = append(tokens, token{kind: kind, text: input[start : start+width], pos: start})
			i += width
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(input)})
	return tokens, nil
}

func isIdentChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func lexOperator(rest string) (tokenKind, int, error) {
	two := ""
	if len(rest) >= 2 {
		two = rest[:2]
	}
	switch two {
	case ">=":
		return tokGreaterEqual, 2, nil
	case "<=":
		return tokLessEqual, 2, nil
	case "==":
		return tokEqual, 2, nil
	case "!=":
		return tokNotEqual, 2, nil
	}
	switch rest[0] {
	case '+':
		return tokPlus, 1, nil
	case '-':
		return tokMinus, 1, nil
	case '*':
		return tokStar, 1, nil
	case '/':
		return tokSlash, 1, nil
	case '(':
		return tokLParen, 1, nil
	case ')':
		return tokRParen, 1, nil
	case ',':
		return tokComma, 1, nil
	case '>':
		return tokGreater, 1, nil
	case '<':
		return tokLess, 1, nil
	}
	return tokEOF, 0, fmt.Errorf("unknown operator %q", strings.TrimSpace(rest[:1]))
}
