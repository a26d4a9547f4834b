package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	canon := NewCanonicalizer(Config{Project: "my-project", Location: "us-central1"})

	tests := []struct {
		name       string
		identifier string
		want       string
	}{
		{
			name:       "bare name",
			identifier: "notes",
			want:       "projects/my-project/locations/us-central1/ragCorpora/notes",
		},
		{
			name:       "special characters replaced",
			identifier: "Eng Docs (v2)!",
			want:       "projects/my-project/locations/us-central1/ragCorpora/Eng_Docs__v2__",
		},
		{
			name:       "trailing segment of a path",
			identifier: "some/nested/path",
			want:       "projects/my-project/locations/us-central1/ragCorpora/path",
		},
		{
			name:       "canonical name passes through",
			identifier: "projects/my-project/locations/us-central1/ragCorpora/abc",
			want:       "projects/my-project/locations/us-central1/ragCorpora/abc",
		},
		{
			name:       "foreign canonical name passes through unchanged",
			identifier: "projects/other/locations/europe-west4/ragCorpora/xyz",
			want:       "projects/other/locations/europe-west4/ragCorpora/xyz",
		},
		{
			name:       "dots sanitized",
			identifier: "release.notes.2024",
			want:       "projects/my-project/locations/us-central1/ragCorpora/release_notes_2024",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canon.Canonicalize(tt.identifier))
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	canon := NewCanonicalizer(Config{Project: "p", Location: "l"})

	inputs := []string{
		"notes",
		"Eng Docs (v2)!",
		"some/nested/path",
		"projects/p/locations/l/ragCorpora/abc",
		"projects/other/locations/x/ragCorpora/y",
		"release.notes",
	}
	for _, in := range inputs {
		once := canon.Canonicalize(in)
		assert.Equal(t, once, canon.Canonicalize(once), "input %q", in)
	}
}
