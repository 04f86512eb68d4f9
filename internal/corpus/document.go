// File path: internal/corpus/document.go
package corpus

import "strings"

// DocumentText derives the indexable text for an organization. Field order is
// fixed so that identical records always produce identical text; absent
// fields contribute nothing, there are no placeholder tokens. The result is
// recomputed at every index build and never stored.
func DocumentText(org Organization) string {
	parts := make([]string, 0, 6)
	appendPart := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		parts = append(parts, label+": "+value)
	}

	appendPart("Organization", org.Name)
	appendPart("Mission", org.Mission)
	appendPart("Programs", org.Programs)
	appendPart("Activities", org.Activities)
	appendPart("Category", org.NTEEDescription)
	appendPart("Location", locationLabel(org.City, org.State))

	return strings.Join(parts, " ")
}

func locationLabel(city, state string) string {
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	default:
		return state
	}
}

// BuildChunks splits an organization into its content-addressed document
// chunks: one per present narrative field plus a summary chunk holding the
// full derived document text.
func BuildChunks(org Organization) []DocumentChunk {
	chunks := make([]DocumentChunk, 0, 4)
	appendChunk := func(t ChunkType, content string) {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		chunks = append(chunks, DocumentChunk{
			EIN:         org.EIN,
			Type:        t,
			Content:     content,
			ContentHash: ChunkHash(content),
		})
	}

	appendChunk(ChunkMission, org.Mission)
	appendChunk(ChunkPrograms, org.Programs)
	appendChunk(ChunkActivities, org.Activities)
	appendChunk(ChunkSummary, DocumentText(org))
	return chunks
}
