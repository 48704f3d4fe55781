package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `var five = 5;
let ten = 10.5;

var add = function(x, y) {
  return x + y;
};

var result = add(five, ten);
!*-5 / 5;
5 < 10 > 5;

if (5 < 10) {
	return true;
} else {
	return false;
}

10 == 10;
10 != 9;
"foobar"
"foo bar"
// This is a comment
var next = null;`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{VAR, "var"}, {IDENT, "five"}, {ASSIGN, "="}, {NUMBER, "5"}, {SEMICOLON, ";"},
		{LET, "let"}, {IDENT, "ten"}, {ASSIGN, "="}, {NUMBER, "10.5"}, {SEMICOLON, ";"},
		{VAR, "var"}, {IDENT, "add"}, {ASSIGN, "="}, {FUNCTION, "function"},
		{LPAREN, "("}, {IDENT, "x"}, {COMMA, ","}, {IDENT, "y"}, {RPAREN, ")"}, {LBRACE, "{"},
		{RETURN, "return"}, {IDENT, "x"}, {PLUS, "+"}, {IDENT, "y"}, {SEMICOLON, ";"},
		{RBRACE, "}"}, {SEMICOLON, ";"},
		{VAR, "var"}, {IDENT, "result"}, {ASSIGN, "="}, {IDENT, "add"}, {LPAREN, "("},
		{IDENT, "five"}, {COMMA, ","}, {IDENT, "ten"}, {RPAREN, ")"}, {SEMICOLON, ";"},
		{BANG, "!"}, {ASTERISK, "*"}, {MINUS, "-"}, {NUMBER, "5"}, {SLASH, "/"}, {NUMBER, "5"}, {SEMICOLON, ";"},
		{NUMBER, "5"}, {LT, "<"}, {NUMBER, "10"}, {GT, ">"}, {NUMBER, "5"}, {SEMICOLON, ";"},
		{IF, "if"}, {LPAREN, "("}, {NUMBER, "5"}, {LT, "<"}, {NUMBER, "10"}, {RPAREN, ")"}, {LBRACE, "{"},
		{RETURN, "return"}, {TRUE, "true"}, {SEMICOLON, ";"}, {RBRACE, "}"},
		{ELSE, "else"}, {LBRACE, "{"}, {RETURN, "return"}, {FALSE, "false"}, {SEMICOLON, ";"}, {RBRACE, "}"},
		{NUMBER, "10"}, {EQ, "=="}, {NUMBER, "10"}, {SEMICOLON, ";"},
		{NUMBER, "10"}, {NOT_EQ, "!="}, {NUMBER, "9"}, {SEMICOLON, ";"},
		{STRING, "foobar"}, {STRING, "foo bar"},
		{VAR, "var"}, {IDENT, "next"}, {ASSIGN, "="}, {NULL, "null"}, {SEMICOLON, ";"},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong type. expected=%q, got=%q (literal %q)", i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - wrong literal. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `== === != !== <= >= << >> >>> ** += -= *= %= &= |= ^= <<= >>= >>>= && || ++ -- /= ...`
	expected := []TokenType{
		EQ, STRICT_EQ, NOT_EQ, STRICT_NOT_EQ, LE, GE, SHL, SAR, SHR, POW,
		PLUS_ASSIGN, MINUS_ASSIGN, ASTERISK_ASSIGN, PERCENT_ASSIGN,
		AMP_ASSIGN, PIPE_ASSIGN, CARET_ASSIGN, SHL_ASSIGN, SAR_ASSIGN, SHR_ASSIGN,
		LOGICAL_AND, LOGICAL_OR, INC, DEC, SLASH_ASSIGN, SPREAD, EOF,
	}
	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %q got %q (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestRegexVsDivisionContext(t *testing.T) {
	l := New(`a / b`)
	l.NextToken() // a
	tok := l.NextToken()
	if tok.Type != SLASH {
		t.Fatalf("expected division SLASH after identifier, got %q", tok.Type)
	}

	l2 := New(`return /abc/g`)
	l2.NextToken() // return
	tok2 := l2.NextToken()
	if tok2.Type != REGEX {
		t.Fatalf("expected REGEX after return keyword, got %q (%q)", tok2.Type, tok2.Literal)
	}
	if tok2.Literal != "/abc/g" {
		t.Fatalf("unexpected regex literal: %q", tok2.Literal)
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\tcA\x42"`)
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("expected STRING, got %q", tok.Type)
	}
	want := "a\nb\tcAB"
	if tok.Literal != want {
		t.Fatalf("expected %q got %q", want, tok.Literal)
	}
}
