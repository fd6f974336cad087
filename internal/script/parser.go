package script

import (
	"fmt"
	"strconv"
)

// Binding powers, lowest first.
const (
	precLowest = iota
	precTernary
	precOr
	precAnd
	precEquals
	precCompare
	precSum
	precProduct
	precPrefix
	precPower
	precPostfix
)

var infixPrec = map[TokenKind]int{
	tokQuestion:  precTernary,
	tokOr:        precOr,
	tokAnd:       precAnd,
	tokEq:        precEquals,
	tokNotEq:     precEquals,
	tokLess:      precCompare,
	tokLessEq:    precCompare,
	tokGreater:   precCompare,
	tokGreaterEq: precCompare,
	tokPlus:      precSum,
	tokMinus:     precSum,
	tokStar:      precProduct,
	tokSlash:     precProduct,
	tokPercent:   precProduct,
	tokCaret:     precPower,
	tokLParen:    precPostfix,
	tokLBracket:  precPostfix,
}

// Parse parses a complete script.
func Parse(src string) (*Program, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	return p.program()
}

// ParseExpr parses src as a single expression.
func ParseExpr(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	e, err := p.expr(precLowest)
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != tokEOF {
		return nil, p.unexpected(p.peek())
	}
	return e, nil
}

// maxNesting bounds how deeply expressions may nest, keeping the
// recursive descent off the end of the goroutine stack.
const maxNesting = 1000

type parser struct {
	src   string
	toks  []Token
	i     int
	depth int
}

func (p *parser) peek() Token {
	return p.toks[p.i]
}

func (p *parser) advance() Token {
	tok := p.toks[p.i]
	if tok.Kind != tokEOF {
		p.i++
	}
	return tok
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, &SyntaxError{Source: p.src, Offset: tok.Offset, Msg: fmt.Sprintf("expected %s, found %s", kind, describe(tok))}
	}
	return p.advance(), nil
}

func (p *parser) unexpected(tok Token) error {
	return &SyntaxError{Source: p.src, Offset: tok.Offset, Msg: fmt.Sprintf("unexpected %s", describe(tok))}
}

func describe(tok Token) string {
	switch tok.Kind {
	case tokIdent, tokNumber:
		return fmt.Sprintf("%s %s", tok.Kind, tok.Text)
	case tokRef:
		return fmt.Sprintf("reference {%s}", tok.Text)
	case tokString:
		return fmt.Sprintf("string %q", tok.Text)
	}
	return tok.Kind.String()
}

func (p *parser) program() (*Program, error) {
	prog := &Program{Source: p.src}
	for {
		for p.peek().Kind == tokSemicolon {
			p.advance()
		}
		if p.peek().Kind == tokEOF {
			return prog, nil
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)

		switch tok := p.peek(); tok.Kind {
		case tokSemicolon, tokEOF:
		default:
			return nil, p.unexpected(tok)
		}
	}
}

func (p *parser) statement() (Stmt, error) {
	switch tok := p.peek(); tok.Kind {
	case tokLet:
		return p.letStatement()
	case tokFn:
		return p.fnStatement()
	default:
		x, err := p.expr(precLowest)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{pos: pos(tok.Offset), X: x}, nil
	}
}

func (p *parser) letStatement() (Stmt, error) {
	let := p.advance()
	target := p.advance()
	if target.Kind != tokIdent && target.Kind != tokRef {
		return nil, &SyntaxError{Source: p.src, Offset: target.Offset, Msg: fmt.Sprintf("let needs a name, found %s", describe(target))}
	}

	var op AssignOp
	switch tok := p.advance(); tok.Kind {
	case tokAssign:
		op = AssignValue
	case tokBindTo:
		op = AssignBind
	case tokAnchorTo:
		op = AssignAnchor
	default:
		return nil, &SyntaxError{Source: p.src, Offset: tok.Offset, Msg: fmt.Sprintf("expected =, &= or #=, found %s", describe(tok))}
	}

	value, err := p.expr(precLowest)
	if err != nil {
		return nil, err
	}
	if op != AssignValue {
		switch value.(type) {
		case *Ref, *Ident:
		default:
			return nil, &SyntaxError{Source: p.src, Offset: value.Offset(), Msg: "bind and anchor need a reference on the right"}
		}
	}
	return &LetStmt{pos: pos(let.Offset), Target: target.Text, Op: op, Value: value}, nil
}

func (p *parser) fnStatement() (Stmt, error) {
	fn := p.advance()
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}

	var params []string
	for p.peek().Kind != tokRParen {
		param, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		params = append(params, param.Text)
		if p.peek().Kind != tokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokArrow); err != nil {
		return nil, err
	}

	body, err := p.expr(precLowest)
	if err != nil {
		return nil, err
	}
	return &FnStmt{pos: pos(fn.Offset), Name: name.Text, Params: params, Body: body}, nil
}

func (p *parser) expr(prec int) (Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxNesting {
		return nil, &SyntaxError{Source: p.src, Offset: p.peek().Offset, Msg: fmt.Sprintf("expression nested deeper than %d", maxNesting)}
	}

	left, err := p.prefix()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		next, ok := infixPrec[tok.Kind]
		if !ok || next <= prec {
			// ^ is right associative: allow an equal binding power to nest.
			if !(ok && tok.Kind == tokCaret && next == prec && prec == precPower) {
				return left, nil
			}
		}
		left, err = p.infix(left)
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) prefix() (Expr, error) {
	tok := p.advance()
	at := pos(tok.Offset)

	switch tok.Kind {
	case tokNumber:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &SyntaxError{Source: p.src, Offset: tok.Offset, Msg: fmt.Sprintf("bad number %q", tok.Text)}
		}
		return &NumberLit{pos: at, Value: f}, nil
	case tokString:
		return &StringLit{pos: at, Value: tok.Text}, nil
	case tokTrue, tokFalse:
		return &BoolLit{pos: at, Value: tok.Kind == tokTrue}, nil
	case tokNull:
		return &NullLit{pos: at}, nil
	case tokIdent:
		return &Ident{pos: at, Name: tok.Text}, nil
	case tokRef:
		return &Ref{pos: at, Name: tok.Text}, nil

	case tokMinus, tokPlus, tokBang:
		x, err := p.expr(precPrefix)
		if err != nil {
			return nil, err
		}
		return &Unary{pos: at, Op: tok.Kind, X: x}, nil

	case tokLParen:
		x, err := p.expr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return x, nil

	case tokLBracket:
		elems, err := p.list(tokRBracket)
		if err != nil {
			return nil, err
		}
		return &ArrayLit{pos: at, Elems: elems}, nil

	case tokIf:
		cond, err := p.expr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokThen); err != nil {
			return nil, err
		}
		then, err := p.expr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokElse); err != nil {
			return nil, err
		}
		els, err := p.expr(precLowest)
		if err != nil {
			return nil, err
		}
		return &Conditional{pos: at, Cond: cond, Then: then, Else: els}, nil
	}
	return nil, p.unexpected(tok)
}

func (p *parser) infix(left Expr) (Expr, error) {
	tok := p.advance()
	at := pos(tok.Offset)

	switch tok.Kind {
	case tokQuestion:
		then, err := p.expr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokColon); err != nil {
			return nil, err
		}
		els, err := p.expr(precTernary - 1)
		if err != nil {
			return nil, err
		}
		return &Conditional{pos: at, Cond: left, Then: then, Else: els}, nil

	case tokAnd, tokOr:
		right, err := p.expr(infixPrec[tok.Kind])
		if err != nil {
			return nil, err
		}
		return &Logical{pos: at, Op: tok.Kind, X: left, Y: right}, nil

	case tokLParen:
		ident, ok := left.(*Ident)
		if !ok {
			return nil, &SyntaxError{Source: p.src, Offset: tok.Offset, Msg: "only named functions can be called"}
		}
		args, err := p.list(tokRParen)
		if err != nil {
			return nil, err
		}
		return &Call{pos: pos(ident.Offset()), Name: ident.Name, Args: args}, nil

	case tokLBracket:
		index, err := p.expr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
		return &Index{pos: at, X: left, Index: index}, nil
	}

	right, err := p.expr(infixPrec[tok.Kind])
	if err != nil {
		return nil, err
	}
	return &Binary{pos: at, Op: tok.Kind, X: left, Y: right}, nil
}

// list parses comma separated expressions up to and including end.
func (p *parser) list(end TokenKind) ([]Expr, error) {
	elems := []Expr{}
	for p.peek().Kind != end {
		e, err := p.expr(precLowest)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.peek().Kind != tokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(end); err != nil {
		return nil, err
	}
	return elems, nil
}
