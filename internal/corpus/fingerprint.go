// File path: internal/corpus/fingerprint.go
package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// ChunkHash returns the hex SHA-256 of a chunk's raw text. Chunks are
// addressed by this hash, which is what makes re-ingesting identical text a
// no-op.
func ChunkHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Fingerprint derives a stable hash over an organization's meaningful
// content. Ingest uses it to skip records whose stored copy is unchanged, so
// the hash ignores nothing the catalog persists.
func Fingerprint(org Organization) string {
	hasher := sha256.New()
	write := func(parts ...string) {
		for _, part := range parts {
			if part == "" {
				continue
			}
			_, _ = hasher.Write([]byte(part))
			_, _ = hasher.Write([]byte{0})
		}
	}

	write(org.EIN, org.Name, org.NTEECode, org.NTEEDescription)
	write(org.Mission, org.Programs, org.Activities)
	write(strings.TrimSpace(org.City), strings.TrimSpace(org.State), org.Website)
	writeMetric := func(v *float64) {
		if v == nil {
			return
		}
		write(strconv.FormatFloat(*v, 'g', -1, 64))
	}
	writeMetric(org.Revenue)
	writeMetric(org.Expenses)
	writeMetric(org.NetAssets)

	return hex.EncodeToString(hasher.Sum(nil))
}
