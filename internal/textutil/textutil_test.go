package textutil

import "testing"

func TestTokenizeUnicode(t *testing.T) {
	tokens := Tokenize("¡Hola, señor García! 123")
	want := []string{"hola", "señor", "garcía", "123"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %v, got %v", want, tokens)
	}
	for i, token := range tokens {
		if token != want[i] {
			t.Fatalf("token %d: expected %q, got %q", i, want[i], token)
		}
	}
}

func TestCosineSimilarityIdenticalText(t *testing.T) {
	a := NewFingerprint("Welcome to the dashboard")
	b := NewFingerprint("welcome to the dashboard")
	if score := CosineSimilarity(a, b); score < 0.999 {
		t.Fatalf("identical text should score 1.0, got %f", score)
	}
}

func TestCosineSimilarityDisjointText(t *testing.T) {
	a := NewFingerprint("Welcome back")
	b := NewFingerprint("Delete account")
	if score := CosineSimilarity(a, b); score != 0 {
		t.Fatalf("disjoint text should score 0, got %f", score)
	}
}

func TestCosineSimilarityNil(t *testing.T) {
	if score := CosineSimilarity(nil, NewFingerprint("x y")); score != 0 {
		t.Fatalf("nil fingerprint should score 0, got %f", score)
	}
	if NewFingerprint("   ") != nil {
		t.Fatal("blank text should produce a nil fingerprint")
	}
}
