package registry

import "testing"

func TestCorpusName(t *testing.T) {
	got := CorpusName("my-project", "us-central1", "notes")
	want := "projects/my-project/locations/us-central1/ragCorpora/notes"
	if got != want {
		t.Fatalf("CorpusName = %q, want %q", got, want)
	}
	if !IsCorpusName(got) {
		t.Error("built name should match the canonical pattern")
	}
}

func TestIsCorpusName(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"projects/p/locations/l/ragCorpora/c", true},
		{"projects/p/locations/l/ragCorpora/c/ragFiles/f", false},
		{"projects/p/locations/l/ragCorpora/", false},
		{"notes", false},
		{"", false},
		{"projects//locations/l/ragCorpora/c", false},
	}
	for _, tc := range cases {
		if got := IsCorpusName(tc.in); got != tc.want {
			t.Errorf("IsCorpusName(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCorpusID(t *testing.T) {
	if got := CorpusID("projects/p/locations/l/ragCorpora/my-notes"); got != "my-notes" {
		t.Errorf("CorpusID = %q", got)
	}
	if got := CorpusID("plain"); got != "plain" {
		t.Errorf("CorpusID without slash = %q", got)
	}
}

func TestFileNameRoundTrip(t *testing.T) {
	corpus := CorpusName("p", "l", "c")
	file := FileName(corpus, "doc1")
	if want := corpus + "/ragFiles/doc1"; file != want {
		t.Fatalf("FileName = %q, want %q", file, want)
	}
	if got := CorpusOfFile(file); got != corpus {
		t.Errorf("CorpusOfFile = %q, want %q", got, corpus)
	}
	if got := CorpusOfFile(corpus); got != "" {
		t.Errorf("CorpusOfFile on a corpus name should be empty, got %q", got)
	}
}
