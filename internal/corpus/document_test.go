// File path: internal/corpus/document_test.go
package corpus

import (
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func sampleOrg() Organization {
	return Organization{
		EIN:             "74-1152597",
		Name:            "Houston Food Bank",
		NTEECode:        "K31",
		NTEEDescription: "Food Banks & Pantries",
		Mission:         "Food for better lives",
		Programs:        "Food distribution and nutrition education",
		Activities:      "Distributes food through a network of partners",
		City:            "Houston",
		State:           "TX",
		Revenue:         floatPtr(425000000),
		Website:         "https://www.houstonfoodbank.org",
	}
}

func TestDocumentTextFieldOrder(t *testing.T) {
	text := DocumentText(sampleOrg())
	want := "Organization: Houston Food Bank " +
		"Mission: Food for better lives " +
		"Programs: Food distribution and nutrition education " +
		"Activities: Distributes food through a network of partners " +
		"Category: Food Banks & Pantries " +
		"Location: Houston, TX"
	if text != want {
		t.Fatalf("document text mismatch:\n got %q\nwant %q", text, want)
	}
}

func TestDocumentTextOmitsAbsentFields(t *testing.T) {
	org := Organization{EIN: "11-1111111", Name: "Sparse Org", State: "TX"}
	text := DocumentText(org)
	want := "Organization: Sparse Org Location: TX"
	if text != want {
		t.Fatalf("sparse document text = %q, want %q", text, want)
	}
	if strings.Contains(text, "Mission") {
		t.Fatalf("absent mission should contribute nothing, got %q", text)
	}
}

func TestDocumentTextEmptyRecord(t *testing.T) {
	if text := DocumentText(Organization{}); text != "" {
		t.Fatalf("empty record should derive empty text, got %q", text)
	}
}

func TestDocumentTextDeterministic(t *testing.T) {
	org := sampleOrg()
	first := DocumentText(org)
	second := DocumentText(org)
	if first != second {
		t.Fatalf("document text not deterministic: %q vs %q", first, second)
	}
}

func TestBuildChunks(t *testing.T) {
	org := sampleOrg()
	chunks := BuildChunks(org)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	wantTypes := []ChunkType{ChunkMission, ChunkPrograms, ChunkActivities, ChunkSummary}
	for i, chunk := range chunks {
		if chunk.Type != wantTypes[i] {
			t.Fatalf("chunk %d type = %s, want %s", i, chunk.Type, wantTypes[i])
		}
		if chunk.EIN != org.EIN {
			t.Fatalf("chunk %d ein = %s, want %s", i, chunk.EIN, org.EIN)
		}
		if chunk.ContentHash != ChunkHash(chunk.Content) {
			t.Fatalf("chunk %d hash does not address its content", i)
		}
	}
	if chunks[3].Content != DocumentText(org) {
		t.Fatalf("summary chunk should hold the derived document text")
	}
}

func TestBuildChunksSkipsEmptyFields(t *testing.T) {
	org := Organization{EIN: "22-2222222", Name: "Mission Only", Mission: "Serve the city"}
	chunks := BuildChunks(org)
	if len(chunks) != 2 {
		t.Fatalf("expected mission and summary chunks, got %d", len(chunks))
	}
	if chunks[0].Type != ChunkMission || chunks[1].Type != ChunkSummary {
		t.Fatalf("unexpected chunk types: %s, %s", chunks[0].Type, chunks[1].Type)
	}
}
