package parse

import (
	"fmt"

	"github.com/arrowgraph/implog/internal/ast"
	"github.com/arrowgraph/implog/internal/ident"
	"github.com/hashicorp/go-multierror"
)

// ParseError reports a single malformed construct, with the line on which it
// was found.
type ParseError struct {
	Name string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Name, e.Line, e.Msg)
}

// parser is a recursive-descent parser with a single token of lookahead.
type parser struct {
	name    string
	lex     *lexer
	tok     item
	interner *ident.Interner
	errs    *multierror.Error
}

// Parse consumes program text and returns the statements it contains. Every
// relation and variable identifier is interned into interner (shared across
// calls so that a driver processing several chunks of the same program sees
// consistent symbols); constants are raw uint32 values. A non-nil error is
// an aggregated *multierror.Error over every malformed statement found --
// the parser does not stop at the first error, it resyncs at the next '.'
// and keeps going, so a single Parse call can report every problem in a
// program at once.
func Parse(name, input string, interner *ident.Interner) ([]ast.Statement, error) {
	p := &parser{name: name, lex: lex(name, input), interner: interner}
	p.advance()
	var stmts []ast.Statement
	for p.tok.typ != itemEOF {
		stmt, ok := p.statement()
		if ok {
			stmts = append(stmts, stmt)
		} else {
			p.resync()
		}
	}
	if p.errs != nil {
		return stmts, p.errs.ErrorOrNil()
	}
	return stmts, nil
}

func (p *parser) advance() {
	p.tok = p.lex.nextToken()
}

func (p *parser) fail(format string, args ...interface{}) {
	p.errs = multierror.Append(p.errs, &ParseError{Name: p.name, Line: p.tok.line, Msg: fmt.Sprintf(format, args...)})
}

// resync discards tokens through the next '.' (or EOF), so that one
// malformed statement doesn't cascade into spurious errors for the rest of
// the program.
func (p *parser) resync() {
	for p.tok.typ != itemDot && p.tok.typ != itemEOF {
		if p.tok.typ == itemError {
			p.advance()
			continue
		}
		p.advance()
	}
	if p.tok.typ == itemDot {
		p.advance()
	}
}

func (p *parser) expect(typ itemType) (item, bool) {
	if p.tok.typ == itemError {
		p.fail("%s", p.tok.val)
		return item{}, false
	}
	if p.tok.typ != typ {
		p.fail("expected %s, got %s", typ, p.tok)
		return item{}, false
	}
	tok := p.tok
	p.advance()
	return tok, true
}

// statement parses one Rule or Question. Variable symbols come from the
// shared interner with no per-statement scoping (the same text "x" always
// yields the same Symbol everywhere, exactly as the original implog
// prototype's single StringInterner does) -- the evaluator
// never compares variables across different rules, so global interning is
// safe and keeps Atom.Relation and Term.Variable in one uniform symbol
// space, matching original_source/implog/src/ast.rs.
func (p *parser) statement() (ast.Statement, bool) {
	if p.tok.typ == itemQuestion {
		return p.question()
	}
	return p.rule()
}

func (p *parser) question() (ast.Statement, bool) {
	if _, ok := p.expect(itemQuestion); !ok {
		return nil, false
	}
	var atoms []ast.Atom
	for {
		a, ok := p.atom()
		if !ok {
			return nil, false
		}
		atoms = append(atoms, a)
		if p.tok.typ == itemComma {
			p.advance()
			continue
		}
		break
	}
	if _, ok := p.expect(itemDot); !ok {
		return nil, false
	}
	return ast.Question{Body: atoms}, true
}

func (p *parser) rule() (ast.Statement, bool) {
	speculate := false
	if p.tok.typ == itemLBracket {
		p.advance()
		speculate = true
	}
	head, ok := p.atom()
	if !ok {
		return nil, false
	}
	if speculate {
		if _, ok := p.expect(itemRBracket); !ok {
			return nil, false
		}
	}

	var body []ast.Literal
	switch p.tok.typ {
	case itemDot:
		p.advance()
	case itemColonDash:
		p.advance()
		if p.tok.typ != itemDot {
			for {
				lit, ok := p.literal()
				if !ok {
					return nil, false
				}
				body = append(body, lit)
				if p.tok.typ == itemComma {
					p.advance()
					continue
				}
				break
			}
		}
		if _, ok := p.expect(itemDot); !ok {
			return nil, false
		}
	default:
		p.fail("expected '.' or ':-', got %s", p.tok)
		return nil, false
	}

	return ast.Rule{Head: head, Speculate: speculate, Body: body}, true
}

func (p *parser) literal() (ast.Literal, bool) {
	first, ok := p.atom()
	if !ok {
		return ast.Literal{}, false
	}
	if p.tok.typ == itemArrow {
		p.advance()
		rhs, ok := p.atom()
		if !ok {
			return ast.Literal{}, false
		}
		return ast.Literal{LHS: []ast.Atom{first}, RHS: rhs}, true
	}
	return ast.Literal{RHS: first}, true
}

func (p *parser) atom() (ast.Atom, bool) {
	nameTok, ok := p.expect(itemIdent)
	if !ok {
		return ast.Atom{}, false
	}
	relation := p.interner.Intern(nameTok.val)
	if _, ok := p.expect(itemLParen); !ok {
		return ast.Atom{}, false
	}
	var terms []ast.Term
	if p.tok.typ != itemRParen {
		for {
			t, ok := p.term()
			if !ok {
				return ast.Atom{}, false
			}
			terms = append(terms, t)
			if p.tok.typ == itemComma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, ok := p.expect(itemRParen); !ok {
		return ast.Atom{}, false
	}
	return ast.Atom{Relation: relation, Terms: terms}, true
}

func (p *parser) term() (ast.Term, bool) {
	switch p.tok.typ {
	case itemNumber:
		v, err := parseUint32(p.tok.val)
		if err != nil {
			p.fail("bad constant %q: %s", p.tok.val, err)
			return ast.Term{}, false
		}
		p.advance()
		return ast.Const(v), true
	case itemIdent:
		sym := p.interner.Intern(p.tok.val)
		p.advance()
		return ast.Var(sym), true
	case itemError:
		p.fail("%s", p.tok.val)
		return ast.Term{}, false
	default:
		p.fail("expected a term, got %s", p.tok)
		return ast.Term{}, false
	}
}
