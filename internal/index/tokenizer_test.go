// File path: internal/index/tokenizer_test.go
package index

import (
	"reflect"
	"testing"
)

func TestNormalizeEmptyInput(t *testing.T) {
	if tokens := Normalize(""); len(tokens) != 0 {
		t.Fatalf("empty input should yield no tokens, got %v", tokens)
	}
	if tokens := Normalize("   \t\n  "); len(tokens) != 0 {
		t.Fatalf("whitespace input should yield no tokens, got %v", tokens)
	}
	if tokens := Normalize("the and of"); len(tokens) != 0 {
		t.Fatalf("all-stopword input should yield no tokens, got %v", tokens)
	}
}

func TestNormalizeStripsPunctuation(t *testing.T) {
	tokens := Normalize("Don't stop... feeding!")
	want := []string{"dont", "stop", "feeding", "dont stop", "stop feeding"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestNormalizeRemovesStopWords(t *testing.T) {
	tokens := Normalize("food for the hungry")
	want := []string{"food", "hungry", "food hungry"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestNormalizeBigramsSpanFilteredNeighbors(t *testing.T) {
	tokens := Normalize("Houston food bank")
	want := []string{"houston", "food", "bank", "houston food", "food bank"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	left := Normalize("food   bank")
	right := Normalize("food bank")
	if !reflect.DeepEqual(left, right) {
		t.Fatalf("whitespace runs should not change tokens: %v vs %v", left, right)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	input := "Meals delivered to seniors across Harris County, 7 days a week."
	first := Normalize(input)
	second := Normalize(input)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalize not deterministic: %v vs %v", first, second)
	}
}

func TestStopListQuirksFrozen(t *testing.T) {
	if _, ok := stopWords["fify"]; !ok {
		t.Fatalf("stop list must keep the inherited 'fify' entry")
	}
	if _, ok := stopWords["seven"]; ok {
		t.Fatalf("'seven' is not part of the inherited stop list")
	}
	if _, ok := stopWords["top"]; !ok {
		t.Fatalf("'top' is a stop word in the inherited list")
	}
}
