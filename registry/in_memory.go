package registry

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// document is the internal representation of directly ingested content used
// to answer Query calls.
type document struct {
	fileName string
	source   string
	text     string
}

// InMemory is a process-local Service implementation useful for tests,
// examples and single-process prototypes. Corpora and files live in maps
// guarded by an RWMutex; values are copied on retrieval to avoid accidental
// external mutation. ListCorpora and ListFiles preserve creation order since
// downstream resolution treats listing order as significant.
//
// Retrieval is a naive term-overlap scan over content seeded via PutDocument.
// Suitable only for tests / demos; the vertex sub-package provides the real
// retrieval semantics.
type InMemory struct {
	mu       sync.RWMutex
	project  string
	location string
	corpora  map[string]*Corpus
	order    []string
	files    map[string]map[string]*File // corpus name -> file name -> file
	fileSeq  map[string][]string         // corpus name -> file names in creation order
	docs     []document
}

// NewInMemory returns an empty in-memory registry rooted at the given
// project/location parent.
func NewInMemory(project, location string) *InMemory {
	return &InMemory{
		project:  project,
		location: location,
		corpora:  make(map[string]*Corpus),
		files:    make(map[string]map[string]*File),
		fileSeq:  make(map[string][]string),
	}
}

// ListCorpora returns all corpora in creation order.
func (m *InMemory) ListCorpora(ctx context.Context) ([]Corpus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]Corpus, 0, len(m.order))
	for _, name := range m.order {
		res = append(res, *m.corpora[name])
	}
	return res, nil
}

// GetCorpus returns a copy of the corpus or ErrCorpusNotFound.
func (m *InMemory) GetCorpus(ctx context.Context, name string) (*Corpus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.corpora[name]
	if !ok {
		return nil, ErrCorpusNotFound
	}
	cp := *c
	return &cp, nil
}

// CreateCorpus provisions a corpus with a generated resource ID.
func (m *InMemory) CreateCorpus(ctx context.Context, displayName, description string) (*Corpus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	c := &Corpus{
		Name:        CorpusName(m.project, m.location, uuid.NewString()),
		DisplayName: displayName,
		Description: description,
		CreateTime:  now,
		UpdateTime:  now,
	}
	m.corpora[c.Name] = c
	m.order = append(m.order, c.Name)
	m.files[c.Name] = make(map[string]*File)
	cp := *c
	return &cp, nil
}

// DeleteCorpus removes the corpus and its files or returns ErrCorpusNotFound.
func (m *InMemory) DeleteCorpus(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.corpora[name]; !ok {
		return ErrCorpusNotFound
	}
	delete(m.corpora, name)
	delete(m.files, name)
	delete(m.fileSeq, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	kept := m.docs[:0]
	for _, d := range m.docs {
		if CorpusOfFile(d.fileName) != name {
			kept = append(kept, d)
		}
	}
	m.docs = kept
	return nil
}

// ListFiles returns the corpus documents in creation order.
func (m *InMemory) ListFiles(ctx context.Context, corpusName string) ([]File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byName, ok := m.files[corpusName]
	if !ok {
		return nil, ErrCorpusNotFound
	}
	res := make([]File, 0, len(byName))
	for _, fn := range m.fileSeq[corpusName] {
		res = append(res, *byName[fn])
	}
	return res, nil
}

// ImportFiles records one File per source. Sources are accepted verbatim; no
// content is fetched, so imported files contribute nothing to Query until
// content is seeded via PutDocument.
func (m *InMemory) ImportFiles(ctx context.Context, corpusName string, sources []string) (*ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byName, ok := m.files[corpusName]
	if !ok {
		return nil, ErrCorpusNotFound
	}
	res := &ImportResult{}
	now := time.Now().UTC()
	for _, src := range sources {
		if strings.TrimSpace(src) == "" {
			res.Skipped++
			continue
		}
		f := &File{
			Name:        FileName(corpusName, uuid.NewString()),
			DisplayName: path.Base(src),
			Source:      src,
			CreateTime:  now,
			UpdateTime:  now,
		}
		byName[f.Name] = f
		m.fileSeq[corpusName] = append(m.fileSeq[corpusName], f.Name)
		res.Imported++
	}
	m.touchLocked(corpusName, now)
	return res, nil
}

// PutDocument directly ingests retrievable content, bypassing source
// fetching. It exists on the in-memory registry only, for seeding Query
// results in tests and examples.
func (m *InMemory) PutDocument(ctx context.Context, corpusName, displayName, text string) (*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byName, ok := m.files[corpusName]
	if !ok {
		return nil, ErrCorpusNotFound
	}
	now := time.Now().UTC()
	f := &File{
		Name:        FileName(corpusName, uuid.NewString()),
		DisplayName: displayName,
		SizeBytes:   int64(len(text)),
		CreateTime:  now,
		UpdateTime:  now,
	}
	byName[f.Name] = f
	m.fileSeq[corpusName] = append(m.fileSeq[corpusName], f.Name)
	m.docs = append(m.docs, document{fileName: f.Name, source: displayName, text: text})
	m.touchLocked(corpusName, now)
	cp := *f
	return &cp, nil
}

// DeleteFile removes a document or returns ErrFileNotFound.
func (m *InMemory) DeleteFile(ctx context.Context, fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	corpusName := CorpusOfFile(fileName)
	byName, ok := m.files[corpusName]
	if !ok {
		return ErrFileNotFound
	}
	if _, ok := byName[fileName]; !ok {
		return ErrFileNotFound
	}
	delete(byName, fileName)
	seq := m.fileSeq[corpusName]
	for i, n := range seq {
		if n == fileName {
			m.fileSeq[corpusName] = append(seq[:i], seq[i+1:]...)
			break
		}
	}
	kept := m.docs[:0]
	for _, d := range m.docs {
		if d.fileName != fileName {
			kept = append(kept, d)
		}
	}
	m.docs = kept
	return nil
}

// Query scores seeded documents by term overlap with the query text. Every
// query term found in a document contributes 1/len(terms) to its score;
// documents scoring below threshold are dropped. Results are ordered by
// score, ties by ingestion order.
func (m *InMemory) Query(ctx context.Context, corpusName, text string, topK int, threshold float64) ([]Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.corpora[corpusName]; !ok {
		return nil, ErrCorpusNotFound
	}
	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 {
		return []Chunk{}, nil
	}
	var hits []Chunk
	for _, d := range m.docs {
		if CorpusOfFile(d.fileName) != corpusName {
			continue
		}
		content := strings.ToLower(d.text)
		matched := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		score := float64(matched) / float64(len(terms))
		if threshold > 0 && score < threshold {
			continue
		}
		hits = append(hits, Chunk{Source: d.source, Text: d.text, Score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *InMemory) touchLocked(corpusName string, now time.Time) {
	if c, ok := m.corpora[corpusName]; ok {
		c.UpdateTime = now
	}
}
