package script

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var twoChar = map[string]TokenKind{
	"&=": tokBindTo, "#=": tokAnchorTo, "=>": tokArrow, "==": tokEq, "!=": tokNotEq,
	"<=": tokLessEq, ">=": tokGreaterEq, "&&": tokAnd, "||": tokOr,
}

var oneChar = map[byte]TokenKind{
	'+': tokPlus, '-': tokMinus, '*': tokStar, '/': tokSlash, '%': tokPercent,
	'^': tokCaret, '!': tokBang, '=': tokAssign, '<': tokLess, '>': tokGreater,
	'?': tokQuestion, ':': tokColon, ',': tokComma, ';': tokSemicolon,
	'(': tokLParen, ')': tokRParen, '[': tokLBracket, ']': tokRBracket,
}

// lex splits src into tokens, ending with tokEOF.
func lex(src string) ([]Token, error) {
	l := &lexer{src: src}
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == tokEOF {
			return toks, nil
		}
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) errorf(offset int, format string, args ...any) error {
	return &SyntaxError{Source: l.src, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peekByte(ahead int) byte {
	if l.pos+ahead < len(l.src) {
		return l.src[l.pos+ahead]
	}
	return 0
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		switch {
		case unicode.IsSpace(r):
			l.pos += size
		case r == '/' && l.peekByte(1) == '/':
			end := strings.IndexByte(l.src[l.pos:], '\n')
			if end < 0 {
				l.pos = len(l.src)
			} else {
				l.pos += end + 1
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (Token, error) {
	l.skipSpaceAndComments()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: tokEOF, Offset: start}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '{':
		return l.reference()
	case c == '"' || c == '\'':
		return l.stringLit(c)
	case isDigit(c) || (c == '.' && isDigit(l.peekByte(1))):
		return l.number()
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		text := l.src[start:l.pos]
		if kw, ok := keywords[text]; ok {
			return Token{Kind: kw, Text: text, Offset: start}, nil
		}
		return Token{Kind: tokIdent, Text: text, Offset: start}, nil
	}

	two := ""
	if l.pos+1 < len(l.src) {
		two = l.src[l.pos : l.pos+2]
	}
	if kind, ok := twoChar[two]; ok {
		l.pos += 2
		return Token{Kind: kind, Text: two, Offset: start}, nil
	}

	if kind, ok := oneChar[c]; ok {
		l.pos++
		return Token{Kind: kind, Text: string(c), Offset: start}, nil
	}
	return Token{}, l.errorf(start, "unexpected character %q", c)
}

// reference reads {name}. Names may hold spaces, colons and pipes but not
// braces.
func (l *lexer) reference() (Token, error) {
	start := l.pos
	end := strings.IndexAny(l.src[start+1:], "{}")
	if end < 0 || l.src[start+1+end] != '}' {
		return Token{}, l.errorf(start, "unterminated reference")
	}
	name := strings.TrimSpace(l.src[start+1 : start+1+end])
	if name == "" {
		return Token{}, l.errorf(start, "empty reference")
	}
	l.pos = start + end + 2
	return Token{Kind: tokRef, Text: name, Offset: start}, nil
}

func (l *lexer) stringLit(quote byte) (Token, error) {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case quote:
			l.pos++
			return Token{Kind: tokString, Text: sb.String(), Offset: start}, nil
		case '\\':
			if l.pos+1 >= len(l.src) {
				return Token{}, l.errorf(l.pos, "unterminated escape")
			}
			esc := l.src[l.pos+1]
			l.pos += 2
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'u':
				if l.pos+4 > len(l.src) {
					return Token{}, l.errorf(l.pos, "short unicode escape")
				}
				n, err := strconv.ParseUint(l.src[l.pos:l.pos+4], 16, 32)
				if err != nil {
					return Token{}, l.errorf(l.pos, "bad unicode escape")
				}
				sb.WriteRune(rune(n))
				l.pos += 4
			default:
				sb.WriteByte(esc)
			}
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return Token{}, l.errorf(start, "unterminated string")
}

func (l *lexer) number() (Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if c := l.peekByte(0); c == 'e' || c == 'E' {
		save := l.pos
		l.pos++
		if c := l.peekByte(0); c == '+' || c == '-' {
			l.pos++
		}
		if !isDigit(l.peekByte(0)) {
			l.pos = save
		}
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	return Token{Kind: tokNumber, Text: l.src[start:l.pos], Offset: start}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.'
}
