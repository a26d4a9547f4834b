package registry

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Corpus describes a document collection held by the registry.
type Corpus struct {
	// Name is the canonical resource name
	// (projects/<p>/locations/<l>/ragCorpora/<id>).
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description,omitempty"`
	CreateTime  time.Time `json:"create_time,omitzero"`
	UpdateTime  time.Time `json:"update_time,omitzero"`
}

// File describes a single document imported into a corpus.
type File struct {
	// Name is the canonical resource name (<corpus name>/ragFiles/<id>).
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description,omitempty"`
	// Source is the originating location (gs:// URI or Drive URL).
	Source     string    `json:"source,omitempty"`
	SizeBytes  int64     `json:"size_bytes,omitempty"`
	CreateTime time.Time `json:"create_time,omitzero"`
	UpdateTime time.Time `json:"update_time,omitzero"`
}

// Chunk is a retrieved passage returned by Query.
type Chunk struct {
	// Source identifies where the passage came from (URI or display name).
	Source string  `json:"source,omitempty"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// ImportResult summarizes an ImportFiles operation.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Service is the gateway contract to the corpus registry. All mutating
// operations run the underlying registry operation to completion before
// returning, so a nil error means the effect is visible to subsequent calls.
//
// Implementations must be safe for concurrent use.
type Service interface {
	// ListCorpora returns all corpora under the configured parent in the
	// registry's listing order.
	ListCorpora(ctx context.Context) ([]Corpus, error)

	// GetCorpus fetches a corpus by canonical resource name. Returns
	// ErrCorpusNotFound when it does not exist.
	GetCorpus(ctx context.Context, name string) (*Corpus, error)

	// CreateCorpus provisions a new corpus with the given display name.
	CreateCorpus(ctx context.Context, displayName, description string) (*Corpus, error)

	// DeleteCorpus removes a corpus and everything beneath it. Returns
	// ErrCorpusNotFound when it does not exist.
	DeleteCorpus(ctx context.Context, name string) error

	// ListFiles returns the documents of a corpus.
	ListFiles(ctx context.Context, corpusName string) ([]File, error)

	// ImportFiles ingests the given sources (gs:// URIs, Drive URLs) into a
	// corpus and reports counts.
	ImportFiles(ctx context.Context, corpusName string, sources []string) (*ImportResult, error)

	// DeleteFile removes a single document by canonical file resource name.
	// Returns ErrFileNotFound when it does not exist.
	DeleteFile(ctx context.Context, fileName string) error

	// Query retrieves the topK passages most relevant to text from a corpus,
	// excluding results beyond the vector distance threshold.
	Query(ctx context.Context, corpusName, text string, topK int, threshold float64) ([]Chunk, error)
}

const (
	corpusCollection = "ragCorpora"
	fileCollection   = "ragFiles"
)

var corpusNamePattern = regexp.MustCompile(`^projects/[^/]+/locations/[^/]+/` + corpusCollection + `/[^/]+$`)

// Parent returns the resource parent for corpora of a project/location pair.
func Parent(project, location string) string {
	return fmt.Sprintf("projects/%s/locations/%s", project, location)
}

// CorpusName builds the canonical corpus resource name.
func CorpusName(project, location, corpusID string) string {
	return fmt.Sprintf("%s/%s/%s", Parent(project, location), corpusCollection, corpusID)
}

// IsCorpusName reports whether s is already a canonical corpus resource name.
func IsCorpusName(s string) bool { return corpusNamePattern.MatchString(s) }

// CorpusID returns the trailing path segment of a resource name. For inputs
// without a slash the input itself is returned.
func CorpusID(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// FileName builds the canonical file resource name for a document of a corpus.
func FileName(corpusName, fileID string) string {
	return fmt.Sprintf("%s/%s/%s", corpusName, fileCollection, fileID)
}

// CorpusOfFile returns the corpus resource name a file resource name belongs
// to, or the empty string when fileName is not a file resource name.
func CorpusOfFile(fileName string) string {
	i := strings.LastIndex(fileName, "/"+fileCollection+"/")
	if i < 0 {
		return ""
	}
	return fileName[:i]
}
