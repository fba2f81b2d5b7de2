// Package parser reads the textual filter syntax used by the command line and
// the HTTP API into a filter tree:
//
//	age > 30 and (city == "NY" or city == LA) and email is not null
//
// Chains of the same connective become one group, and "and" binds tighter
// than "or".
package parser

import (
	"fmt"
	"strings"

	"github.com/razeghi71/tabview/errhandling"
	"github.com/razeghi71/tabview/filter"
	"github.com/razeghi71/tabview/lexer"
)

// Parser converts a token stream into a filter tree.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// ParseFilter parses a filter expression. Blank input yields an empty AND
// group, which matches every row.
func ParseFilter(input string) (filter.Node, error) {
	if strings.TrimSpace(input) == "" {
		return filter.MatchAll(), nil
	}
	tokens, err := lexer.Lex(input)
	if err != nil {
		return nil, errhandling.New(errhandling.KindInvalidRequest, "parse", "lex error: %v", err)
	}
	p := &Parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, errhandling.Wrap(errhandling.KindInvalidRequest, "parse", err)
	}
	if tok := p.peek(); tok.Type != lexer.TokenEOF {
		return nil, errhandling.New(errhandling.KindInvalidRequest, "parse", "unexpected token %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
	return node, nil
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, fmt.Errorf("expected %s, got %s (%q) at position %d", tt, tok.Type, tok.Val, tok.Pos)
	}
	return tok, nil
}

func (p *Parser) parseOr() (filter.Node, error) {
	return p.parseChain(lexer.TokenOr, filter.LogicOr, p.parseAnd)
}

func (p *Parser) parseAnd() (filter.Node, error) {
	return p.parseChain(lexer.TokenAnd, filter.LogicAnd, p.parsePrimary)
}

// parseChain reads operand (sep operand)*. A single operand is returned as is.
func (p *Parser) parseChain(sep lexer.TokenType, logic string, operand func() (filter.Node, error)) (filter.Node, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != sep {
		return first, nil
	}
	children := []filter.Node{first}
	for p.peek().Type == sep {
		p.advance()
		next, err := operand()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	return &filter.Group{Logic: logic, Children: children}, nil
}

func (p *Parser) parsePrimary() (filter.Node, error) {
	if p.peek().Type == lexer.TokenLParen {
		p.advance()
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return node, nil
	}
	return p.parseCondition()
}

func (p *Parser) parseCondition() (filter.Node, error) {
	colTok := p.advance()
	if colTok.Type != lexer.TokenIdent && colTok.Type != lexer.TokenBacktickIdent {
		return nil, fmt.Errorf("expected column name, got %s (%q) at position %d", colTok.Type, colTok.Val, colTok.Pos)
	}
	column := colTok.Val

	opTok := p.advance()
	switch opTok.Type {
	case lexer.TokenEq:
		return p.valueCondition(column, filter.Equals)
	case lexer.TokenNeq:
		return p.valueCondition(column, filter.NotEquals)
	case lexer.TokenGt:
		return p.valueCondition(column, filter.GreaterThan)
	case lexer.TokenLt:
		return p.valueCondition(column, filter.LessThan)
	case lexer.TokenContains:
		return p.valueCondition(column, filter.Contains)
	case lexer.TokenStartsWith:
		return p.valueCondition(column, filter.StartsWith)
	case lexer.TokenEndsWith:
		return p.valueCondition(column, filter.EndsWith)
	case lexer.TokenNot:
		if _, err := p.expect(lexer.TokenContains); err != nil {
			return nil, fmt.Errorf("after 'not': %w", err)
		}
		return p.valueCondition(column, filter.NotContains)
	case lexer.TokenIs:
		op := filter.IsNull
		if p.peek().Type == lexer.TokenNot {
			p.advance()
			op = filter.IsNotNull
		}
		if _, err := p.expect(lexer.TokenNull); err != nil {
			return nil, fmt.Errorf("after 'is': %w", err)
		}
		return filter.NullCheck(column, op), nil
	default:
		return nil, fmt.Errorf("expected operator after column %q, got %s (%q) at position %d", column, opTok.Type, opTok.Val, opTok.Pos)
	}
}

func (p *Parser) valueCondition(column string, op filter.Operator) (filter.Node, error) {
	tok := p.advance()
	switch tok.Type {
	case lexer.TokenString, lexer.TokenInt, lexer.TokenFloat, lexer.TokenIdent:
		return filter.Cond(column, op, tok.Val), nil
	case lexer.TokenTrue, lexer.TokenFalse:
		return filter.Cond(column, op, strings.ToLower(tok.Val)), nil
	default:
		return nil, fmt.Errorf("expected value for %s on %q, got %s (%q) at position %d", op, column, tok.Type, tok.Val, tok.Pos)
	}
}
