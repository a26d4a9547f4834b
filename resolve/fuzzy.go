package resolve

import (
	"strings"

	"github.com/hupe1980/ragmesh/registry"
)

// Handle identifies a resolved corpus for downstream registry calls and for
// user display.
type Handle struct {
	// Name is the canonical resource name.
	Name        string
	DisplayName string
}

// Candidate field weights. Display names are what users type most often, the
// trailing resource segment second; the full resource name is the weakest
// signal since any corpus of the same parent contains the same long prefix.
const (
	weightDisplayName = 30
	weightCorpusID    = 20
	weightFullName    = 10
)

// bestMatch runs the ranked substring pass over a live corpus listing.
//
// The query and all candidates are compared case-insensitively after
// trimming the query. Each corpus contributes three candidates: its display
// name, the trailing segment of its resource name and the full resource
// name. A candidate containing the query as a substring scores
//
//	len(query)*100 + fieldWeight - matchOffset
//
// so longer queries dominate, stronger fields break near-ties and earlier
// offsets rank above later ones. Ties keep the first-seen highest score,
// which preserves listing order. A blank query matches nothing.
func bestMatch(query string, corpora []registry.Corpus) (Handle, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Handle{}, false
	}

	best := -1
	var hit Handle
	for _, c := range corpora {
		candidates := []struct {
			text   string
			weight int
		}{
			{c.DisplayName, weightDisplayName},
			{registry.CorpusID(c.Name), weightCorpusID},
			{c.Name, weightFullName},
		}
		for _, cand := range candidates {
			idx := strings.Index(strings.ToLower(cand.text), q)
			if idx < 0 {
				continue
			}
			score := len(q)*100 + cand.weight - idx
			if score > best {
				best = score
				hit = Handle{Name: c.Name, DisplayName: c.DisplayName}
			}
		}
	}
	return hit, best >= 0
}
