package script

import "fmt"

// TokenKind classifies a lexical token.
type TokenKind int

const (
	tokEOF TokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokRef // {anything but braces}

	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokCaret
	tokBang
	tokAssign    // =
	tokBindTo    // &=
	tokAnchorTo  // #=
	tokArrow     // =>
	tokEq        // ==
	tokNotEq     // !=
	tokLess      // <
	tokLessEq    // <=
	tokGreater   // >
	tokGreaterEq // >=
	tokAnd       // &&
	tokOr        // ||
	tokQuestion
	tokColon
	tokComma
	tokSemicolon
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket

	tokLet
	tokFn
	tokIf
	tokThen
	tokElse
	tokTrue
	tokFalse
	tokNull
)

var tokenNames = map[TokenKind]string{
	tokEOF: "end of input", tokNumber: "number", tokString: "string",
	tokIdent: "identifier", tokRef: "reference",
	tokPlus: "+", tokMinus: "-", tokStar: "*", tokSlash: "/", tokPercent: "%",
	tokCaret: "^", tokBang: "!", tokAssign: "=", tokBindTo: "&=", tokAnchorTo: "#=",
	tokArrow: "=>", tokEq: "==", tokNotEq: "!=", tokLess: "<", tokLessEq: "<=",
	tokGreater: ">", tokGreaterEq: ">=", tokAnd: "&&", tokOr: "||",
	tokQuestion: "?", tokColon: ":", tokComma: ",", tokSemicolon: ";",
	tokLParen: "(", tokRParen: ")", tokLBracket: "[", tokRBracket: "]",
	tokLet: "let", tokFn: "fn", tokIf: "if", tokThen: "then", tokElse: "else",
	tokTrue: "true", tokFalse: "false", tokNull: "null",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(k))
}

var keywords = map[string]TokenKind{
	"let":   tokLet,
	"fn":    tokFn,
	"if":    tokIf,
	"then":  tokThen,
	"else":  tokElse,
	"true":  tokTrue,
	"false": tokFalse,
	"null":  tokNull,
}

// Token is one lexical token. Text holds the decoded literal for strings,
// the trimmed name for references and the raw text otherwise.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int
}
