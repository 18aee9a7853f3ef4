package onnx

import (
	"os"
	"path/filepath"
	"testing"
)

func testVocab() map[string]int {
	return map[string]int{
		"[UNK]": 100, "[CLS]": 101, "[SEP]": 102,
		"my": 2026, "dog": 3899, "name": 2171, "is": 2003, "rex": 10151,
		"play": 2377, "##ing": 2075,
	}
}

func TestTokenize(t *testing.T) {
	tok := NewTokenizer(testVocab())

	got := tok.Tokenize("My dog's name is Rex!")
	// "dog's" is not in the vocabulary and has no known prefix pieces
	// beyond "dog", so it becomes dog + unknowns.
	if got[0] != 2026 || got[1] != 3899 {
		t.Fatalf("unexpected leading tokens %v", got)
	}
	if last := got[len(got)-1]; last != 10151 {
		t.Errorf("expected trailing rex token, got %d", last)
	}
}

func TestTokenize_WordPiece(t *testing.T) {
	tok := NewTokenizer(testVocab())
	got := tok.Tokenize("playing")
	if len(got) != 2 || got[0] != 2377 || got[1] != 2075 {
		t.Errorf("expected [play ##ing], got %v", got)
	}
}

func TestEncode_Truncates(t *testing.T) {
	tok := NewTokenizer(testVocab())
	ids := tok.Encode("my dog my dog my dog", 4)
	if len(ids) != 4 {
		t.Fatalf("expected 4 ids, got %v", ids)
	}
	if ids[0] != clsID || ids[3] != sepID {
		t.Errorf("expected [CLS] ... [SEP], got %v", ids)
	}
}

func TestLoadTokenizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	if err := os.WriteFile(path, []byte(`{"model": {"vocab": {"rex": 7}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	tok, err := LoadTokenizer(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := tok.Tokenize("Rex"); len(got) != 1 || got[0] != 7 {
		t.Errorf("unexpected tokens %v", got)
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	os.WriteFile(empty, []byte(`{"model": {}}`), 0o644)
	if _, err := LoadTokenizer(empty); err == nil {
		t.Error("expected error for empty vocabulary")
	}
}
