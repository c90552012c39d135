package sandbox

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parse parses a single expression. A leading "=" (the cell-expression
// marker of spec §4.F) is stripped if present, so the same parser serves
// both cell expressions ("=self.price*2") and validator expressions
// ("self.price >= 0").
func Parse(src string) (Expr, error) {
	src = strings.TrimPrefix(src, "=")
	lx := newLexer(src)
	toks, err := lx.tokens()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.at(tokEOF) {
		return nil, errors.Errorf("expression: unexpected trailing token %q", p.cur().text)
	}
	return expr, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}
func (p *parser) at(k tokenKind) bool { return p.cur().kind == k }
func (p *parser) isPunct(s string) bool {
	return p.cur().kind == tokPunct && p.cur().text == s
}
func (p *parser) isKeyword(s string) bool {
	return p.cur().kind == tokKeyword && p.cur().text == s
}

func (p *parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return errors.Errorf("expression: expected %q, got %q", s, p.cur().text)
	}
	p.advance()
	return nil
}

// Precedence climbing mirrors Lua's operator table (spec §9 notes the
// source is a Lua-embedded evaluator).

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "or", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "and", L: left, R: right}
	}
	return left, nil
}

var comparisonOps = map[string]bool{"==": true, "~=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokPunct && comparisonOps[p.cur().text] {
		op := p.advance().text
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseConcat() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.isPunct("..") {
		p.advance()
		right, err := p.parseConcat() // right-associative
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: "..", L: left, R: right}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokPunct && (p.cur().text == "+" || p.cur().text == "-") {
		op := p.advance().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokPunct && (p.cur().text == "*" || p.cur().text == "/" || p.cur().text == "%" || p.cur().text == "//") {
		op := p.advance().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.isKeyword("not") {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "not", X: x}, nil
	}
	if p.isPunct("-") {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "-", X: x}, nil
	}
	if p.isPunct("#") {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "#", X: x}, nil
	}
	return p.parsePow()
}

func (p *parser) parsePow() (Expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.isPunct("^") {
		p.advance()
		right, err := p.parseUnary() // right-associative, binds tighter than unary on the left
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: "^", L: left, R: right}, nil
	}
	return left, nil
}

func (p *parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("."):
			p.advance()
			if !p.at(tokIdent) && p.cur().kind != tokKeyword {
				return nil, errors.New("expression: expected field name after '.'")
			}
			name := p.advance().text
			expr = &FieldExpr{Target: expr, Name: name}
		case p.isPunct("["):
			p.advance()
			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			expr = &IndexExpr{Target: expr, Index: idx}
		case p.isPunct("("):
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = &CallExpr{Callee: expr, Args: args}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parseArgs() ([]Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []Expr
	if !p.isPunct(")") {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.cur()
	switch {
	case t.kind == tokNumber:
		p.advance()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "expression: malformed number %q", t.text)
		}
		return NumberLit{Value: f}, nil
	case t.kind == tokString:
		p.advance()
		return StringLit{Value: t.text}, nil
	case p.isKeyword("true"):
		p.advance()
		return BoolLit{Value: true}, nil
	case p.isKeyword("false"):
		p.advance()
		return BoolLit{Value: false}, nil
	case p.isKeyword("nil"):
		p.advance()
		return NilLit{}, nil
	case p.isKeyword("self"):
		p.advance()
		return SelfExpr{}, nil
	case t.kind == tokIdent:
		p.advance()
		return NameExpr{Name: t.text}, nil
	case p.isPunct("("):
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return expr, nil
	case p.isPunct("{"):
		return p.parseTable()
	default:
		return nil, errors.Errorf("expression: unexpected token %q", t.text)
	}
}

func (p *parser) parseTable() (Expr, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	table := &TableExpr{}
	for !p.isPunct("}") {
		if p.isPunct("[") {
			p.advance()
			key, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			val, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			table.Keyed = append(table.Keyed, TableField{KeyExpr: key, Value: val})
		} else if p.cur().kind == tokIdent && p.peekIsAssign() {
			name := p.advance().text
			p.advance() // consume '='
			val, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			table.Keyed = append(table.Keyed, TableField{Key: name, Value: val})
		} else {
			val, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			table.ArrayItems = append(table.ArrayItems, val)
		}
		if p.isPunct(",") || p.isPunct(";") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return table, nil
}

func (p *parser) peekIsAssign() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	next := p.toks[p.pos+1]
	return next.kind == tokPunct && next.text == "="
}
