package dashboard

import (
	"strings"

	"github.com/haesinais/aisdash/internal/vessel"
)

// Filter returns the records whose MMSI text contains term. An empty or
// whitespace-only term returns list unchanged. Matching is a plain
// case-sensitive substring test and keeps the input order.
func Filter(list []vessel.Record, term string) []vessel.Record {
	if strings.TrimSpace(term) == "" {
		return list
	}

	filtered := make([]vessel.Record, 0, len(list))
	for _, r := range list {
		if strings.Contains(r.MMSIText(), term) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
