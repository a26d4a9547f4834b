package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/registry"
)

func corpus(id, displayName string) registry.Corpus {
	return registry.Corpus{
		Name:        registry.CorpusName("p", "l", id),
		DisplayName: displayName,
	}
}

func TestBestMatch_CaseInsensitiveSubstring(t *testing.T) {
	corpora := []registry.Corpus{
		corpus("docs-123", "Engineering Docs"),
		corpus("misc", "Misc"),
	}

	h, ok := bestMatch("engineering", corpora)
	require.True(t, ok)
	assert.Equal(t, "Engineering Docs", h.DisplayName)

	h, ok = bestMatch("DOCS", corpora)
	require.True(t, ok)
	assert.Equal(t, "Engineering Docs", h.DisplayName)
}

func TestBestMatch_FieldWeights(t *testing.T) {
	// "team" appears in the display name of one corpus and only in the
	// resource id of another; the display name hit must win.
	corpora := []registry.Corpus{
		corpus("team", "Archive"),
		corpus("xyz", "team wiki"),
	}

	h, ok := bestMatch("team", corpora)
	require.True(t, ok)
	assert.Equal(t, "team wiki", h.DisplayName, "display name outweighs resource id")

	// resource id in turn outweighs the full resource name
	corpora = []registry.Corpus{
		{Name: "projects/team/locations/l/ragCorpora/alpha", DisplayName: "Alpha"},
		corpus("team-docs", "Beta"),
	}
	h, ok = bestMatch("team", corpora)
	require.True(t, ok)
	assert.Equal(t, "Beta", h.DisplayName, "trailing segment outweighs full-name hit")
}

func TestBestMatch_EarlierOffsetWins(t *testing.T) {
	corpora := []registry.Corpus{
		corpus("a", "shared notes"),
		corpus("b", "notes"),
	}

	h, ok := bestMatch("notes", corpora)
	require.True(t, ok)
	assert.Equal(t, "notes", h.DisplayName, "offset 0 beats offset 7")
}

func TestBestMatch_ExactBeforeLongerCandidate(t *testing.T) {
	// Both display names contain the query at offset 0 and score equally;
	// the first listed corpus keeps the win.
	corpora := []registry.Corpus{
		corpus("n1", "Notes"),
		corpus("n2", "Notes A"),
	}

	h, ok := bestMatch("Notes", corpora)
	require.True(t, ok)
	assert.Equal(t, "Notes", h.DisplayName)
}

func TestBestMatch_FullResourceNameFallback(t *testing.T) {
	// Neither display name nor trailing segment contain the query; the full
	// resource name still resolves it.
	corpora := []registry.Corpus{
		{Name: "projects/acme/locations/l/ragCorpora/kb", DisplayName: "KB"},
	}

	h, ok := bestMatch("acme", corpora)
	require.True(t, ok)
	assert.Equal(t, "KB", h.DisplayName)
}

func TestBestMatch_FirstSeenTieKept(t *testing.T) {
	corpora := []registry.Corpus{
		corpus("dup-1", "Duplicate"),
		corpus("dup-2", "Duplicate"),
	}

	h, ok := bestMatch("duplicate", corpora)
	require.True(t, ok)
	assert.Equal(t, registry.CorpusName("p", "l", "dup-1"), h.Name, "listing order decides ties")
}

func TestBestMatch_BlankQuery(t *testing.T) {
	corpora := []registry.Corpus{corpus("a", "Anything")}

	_, ok := bestMatch("", corpora)
	assert.False(t, ok)

	_, ok = bestMatch("   \t", corpora)
	assert.False(t, ok)
}

func TestBestMatch_NoMatch(t *testing.T) {
	corpora := []registry.Corpus{
		corpus("a", "Engineering"),
		corpus("b", "Marketing"),
	}

	_, ok := bestMatch("finance", corpora)
	assert.False(t, ok)
}

func TestBestMatch_EmptyListing(t *testing.T) {
	_, ok := bestMatch("anything", nil)
	assert.False(t, ok)
}
