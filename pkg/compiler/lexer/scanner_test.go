package lexer_test

import (
	"testing"

	"github.com/chazu/kozi/pkg/compiler/lexer"
)

func TestScannerPunctuationAndKeywords(t *testing.T) {
	src := []byte(`let a = 10; print a + 2 <= 3;`)
	s := lexer.NewScanner(src)

	expected := []lexer.Kind{
		lexer.KindLet, lexer.KindIdentifier, lexer.KindEqual, lexer.KindNumber, lexer.KindSemicolon,
		lexer.KindPrint, lexer.KindIdentifier, lexer.KindPlus, lexer.KindNumber,
		lexer.KindLessEqual, lexer.KindNumber, lexer.KindSemicolon, lexer.KindEOF,
	}

	for i, exp := range expected {
		tok, err := s.Next()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if tok.Kind != exp {
			t.Errorf("token %d: expected kind %v, got %v", i, exp, tok.Kind)
		}
	}
}

func TestScannerCompoundAssignment(t *testing.T) {
	src := []byte(`+= -= *= /=`)
	s := lexer.NewScanner(src)
	expected := []lexer.Kind{lexer.KindPlusEqual, lexer.KindMinusEqual, lexer.KindStarEqual, lexer.KindSlashEqual, lexer.KindEOF}
	for i, exp := range expected {
		tok, err := s.Next()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if tok.Kind != exp {
			t.Errorf("token %d: expected kind %v, got %v", i, exp, tok.Kind)
		}
	}
}

func TestScannerStringLexemeExcludesQuotes(t *testing.T) {
	src := []byte(`"hello"`)
	s := lexer.NewScanner(src)
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(tok.Lexeme(src)); got != "hello" {
		t.Errorf("expected lexeme %q, got %q", "hello", got)
	}
}

func TestScannerStringWithEmbeddedNewline(t *testing.T) {
	src := []byte("\"a\nb\" x")
	s := lexer.NewScanner(src)
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != lexer.KindString {
		t.Fatalf("expected string token, got %v", tok.Kind)
	}
	if got := string(tok.Lexeme(src)); got != "a\nb" {
		t.Errorf("expected lexeme %q, got %q", "a\nb", got)
	}
	next, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Line != 2 {
		t.Errorf("expected line counter to advance past the embedded newline, got %d", next.Line)
	}
}

func TestScannerUnterminatedString(t *testing.T) {
	s := lexer.NewScanner([]byte(`"never closes`))
	_, err := s.Next()
	if err == nil || err.Kind != lexer.UnterminatedString {
		t.Fatalf("expected UnterminatedString, got %v", err)
	}
}

func TestScannerInvalidNumber(t *testing.T) {
	s := lexer.NewScanner([]byte(`1.`))
	_, err := s.Next()
	if err == nil || err.Kind != lexer.InvalidNumber {
		t.Fatalf("expected InvalidNumber, got %v", err)
	}
}

func TestScannerNumberWithFraction(t *testing.T) {
	s := lexer.NewScanner([]byte(`3.14`))
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != lexer.KindNumber {
		t.Fatalf("expected number token, got %v", tok.Kind)
	}
}

func TestScannerUnexpectedCharacter(t *testing.T) {
	s := lexer.NewScanner([]byte(`@`))
	_, err := s.Next()
	if err == nil || err.Kind != lexer.UnexpectedCharacter {
		t.Fatalf("expected UnexpectedCharacter, got %v", err)
	}
}

func TestScannerUnicodeIdentifier(t *testing.T) {
	// Greek letters are a permitted identifier-start script (spec.md §4.1).
	s := lexer.NewScanner([]byte(`λ`))
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != lexer.KindIdentifier {
		t.Errorf("expected identifier, got %v", tok.Kind)
	}
}

func TestScannerLineCommentSkipped(t *testing.T) {
	src := []byte("1 // a comment\n2")
	s := lexer.NewScanner(src)
	first, _ := s.Next()
	second, _ := s.Next()
	if first.Line != 1 || second.Line != 2 {
		t.Errorf("expected lines 1 and 2, got %d and %d", first.Line, second.Line)
	}
}

func TestScannerRoundTripsWhitespace(t *testing.T) {
	// Concatenating every non-EOF lexeme, interleaved with the skipped
	// whitespace, reproduces the original buffer (spec.md §8).
	src := []byte("let  a = 1 ;\nprint a;")
	s := lexer.NewScanner(src)

	var rebuilt []byte
	lastEnd := 0
	for {
		tok, err := s.Next()
		if err != nil {
			t.Fatalf("unexpected scan error: %v", err)
		}
		if tok.Kind == lexer.KindEOF {
			break
		}
		rebuilt = append(rebuilt, src[lastEnd:tok.Offset]...)
		rebuilt = append(rebuilt, tok.Lexeme(src)...)
		lastEnd = int(tok.Offset + tok.Length)
	}
	rebuilt = append(rebuilt, src[lastEnd:]...)

	if string(rebuilt) != string(src) {
		t.Errorf("round trip mismatch:\n got: %q\nwant: %q", rebuilt, src)
	}
}
