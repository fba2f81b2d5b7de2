package lexer

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Structural
	TokenLParen TokenType = iota // (
	TokenRParen                  // )

	// Comparison
	TokenEq  // ==
	TokenNeq // !=
	TokenLt  // <
	TokenGt  // >

	// Keywords
	TokenAnd        // and
	TokenOr         // or
	TokenNot        // not
	TokenIs         // is
	TokenTrue       // true
	TokenFalse      // false
	TokenNull       // null
	TokenContains   // contains
	TokenStartsWith // startswith
	TokenEndsWith   // endswith

	// Literals
	TokenInt    // integer literal
	TokenFloat  // float literal
	TokenString // "string literal"

	// Identifiers
	TokenIdent         // plain identifier (column name or bare word)
	TokenBacktickIdent // `identifier with spaces`

	// End
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenLParen: "(", TokenRParen: ")",
	TokenEq: "==", TokenNeq: "!=", TokenLt: "<", TokenGt: ">",
	TokenAnd: "and", TokenOr: "or", TokenNot: "not", TokenIs: "is",
	TokenTrue: "true", TokenFalse: "false", TokenNull: "null",
	TokenContains: "contains", TokenStartsWith: "startswith", TokenEndsWith: "endswith",
	TokenInt: "INT", TokenFloat: "FLOAT", TokenString: "STRING",
	TokenIdent: "IDENT", TokenBacktickIdent: "BACKTICK_IDENT", TokenEOF: "EOF",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// Token represents a single lexical token.
type Token struct {
	Type TokenType
	Val  string
	Pos  int // rune offset in original input
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Val, t.Pos)
}

// keywords are matched case-insensitively. A column named like a keyword
// must be written in backticks.
var keywords = map[string]TokenType{
	"and":        TokenAnd,
	"or":         TokenOr,
	"not":        TokenNot,
	"is":         TokenIs,
	"true":       TokenTrue,
	"false":      TokenFalse,
	"null":       TokenNull,
	"contains":   TokenContains,
	"startswith": TokenStartsWith,
	"endswith":   TokenEndsWith,
}

// Lex tokenizes a filter expression into a slice of Tokens.
func Lex(input string) ([]Token, error) {
	var tokens []Token
	runes := []rune(input)
	i := 0

	for i < len(runes) {
		ch := runes[i]

		if unicode.IsSpace(ch) {
			i++
			continue
		}

		pos := i
		switch ch {
		case '(':
			tokens = append(tokens, Token{TokenLParen, "(", pos})
			i++
			continue
		case ')':
			tokens = append(tokens, Token{TokenRParen, ")", pos})
			i++
			continue
		case '-':
			if i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
				tok, newI := lexNumber(runes, i)
				tokens = append(tokens, tok)
				i = newI
				continue
			}
			return nil, fmt.Errorf("unexpected character '-' at position %d", pos)
		case '=':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, Token{TokenEq, "==", pos})
				i += 2
				continue
			}
			return nil, fmt.Errorf("unexpected character '=' at position %d (did you mean '=='?)", pos)
		case '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, Token{TokenNeq, "!=", pos})
				i += 2
				continue
			}
			return nil, fmt.Errorf("unexpected character '!' at position %d (did you mean '!='?)", pos)
		case '<':
			tokens = append(tokens, Token{TokenLt, "<", pos})
			i++
			continue
		case '>':
			tokens = append(tokens, Token{TokenGt, ">", pos})
			i++
			continue
		}

		if ch == '"' || ch == '\'' {
			tok, newI, err := lexString(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		if ch == '`' {
			tok, newI, err := lexBacktick(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		if unicode.IsDigit(ch) {
			tok, newI := lexNumber(runes, i)
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		if isIdentStart(ch) {
			tok, newI := lexIdent(runes, i)
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		return nil, fmt.Errorf("unexpected character %q at position %d", ch, pos)
	}

	tokens = append(tokens, Token{TokenEOF, "", len(runes)})
	return tokens, nil
}

// lexString reads a literal closed by the same quote it opened with.
func lexString(runes []rune, start int) (Token, int, error) {
	quote := runes[start]
	i := start + 1
	var sb []rune
	for i < len(runes) {
		if runes[i] == '\\' && i+1 < len(runes) {
			switch runes[i+1] {
			case quote:
				sb = append(sb, quote)
			case '\\':
				sb = append(sb, '\\')
			case 'n':
				sb = append(sb, '\n')
			case 't':
				sb = append(sb, '\t')
			default:
				sb = append(sb, '\\', runes[i+1])
			}
			i += 2
			continue
		}
		if runes[i] == quote {
			return Token{TokenString, string(sb), start}, i + 1, nil
		}
		sb = append(sb, runes[i])
		i++
	}
	return Token{}, 0, fmt.Errorf("unterminated string starting at position %d", start)
}

func lexBacktick(runes []rune, start int) (Token, int, error) {
	i := start + 1
	var sb []rune
	for i < len(runes) {
		if runes[i] == '`' {
			return Token{TokenBacktickIdent, string(sb), start}, i + 1, nil
		}
		sb = append(sb, runes[i])
		i++
	}
	return Token{}, 0, fmt.Errorf("unterminated backtick identifier starting at position %d", start)
}

func lexNumber(runes []rune, start int) (Token, int) {
	i := start
	isFloat := false

	if i < len(runes) && runes[i] == '-' {
		i++
	}

	for i < len(runes) && unicode.IsDigit(runes[i]) {
		i++
	}

	if i < len(runes) && runes[i] == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
		isFloat = true
		i++
		for i < len(runes) && unicode.IsDigit(runes[i]) {
			i++
		}
	}

	val := string(runes[start:i])
	if isFloat {
		return Token{TokenFloat, val, start}, i
	}
	return Token{TokenInt, val, start}, i
}

func lexIdent(runes []rune, start int) (Token, int) {
	i := start
	for i < len(runes) && isIdentPart(runes[i]) {
		i++
	}
	val := string(runes[start:i])

	if tt, ok := keywords[strings.ToLower(val)]; ok {
		return Token{tt, val, start}, i
	}
	return Token{TokenIdent, val, start}, i
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

// isIdentPart allows dots so bare words like example.com stay one token.
func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '.'
}
