// Package vertex implements the registry.Service contract against the Vertex
// AI RAG Engine REST API (v1beta1). Corpus and file mutations are long-running
// operations on the remote side; this gateway polls them to completion so a
// nil error always means the effect is visible to subsequent calls.
//
// Authentication uses Application Default Credentials via golang.org/x/oauth2
// unless a TokenSource or HTTPClient is injected through the options.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/registry"
)

const (
	apiVersion  = "v1beta1"
	authScope   = "https://www.googleapis.com/auth/cloud-platform"
	defaultPoll = 2 * time.Second
	maxPageSize = 100
)

var (
	driveFilePattern   = regexp.MustCompile(`^https://drive\.google\.com/file/d/([a-zA-Z0-9_-]+)`)
	driveFolderPattern = regexp.MustCompile(`^https://drive\.google\.com/drive/folders/([a-zA-Z0-9_-]+)`)
)

// Options configures the Vertex gateway. Extend via functional options to
// preserve stability.
type Options struct {
	// Endpoint overrides the regional API endpoint, mainly for tests.
	Endpoint string
	// HTTPClient is used verbatim when set; otherwise a client is derived
	// from the token source.
	HTTPClient *http.Client
	// TokenSource supplies OAuth2 tokens. Defaults to Application Default
	// Credentials.
	TokenSource oauth2.TokenSource
	// PollInterval is the delay between long-running operation polls.
	PollInterval time.Duration
	Logger       logging.Logger
}

// Service is a registry.Service backed by the Vertex AI RAG Engine.
type Service struct {
	project  string
	location string
	endpoint string
	hc       *http.Client
	poll     time.Duration
	logger   logging.Logger
}

var _ registry.Service = (*Service)(nil)

// New creates a Vertex gateway for the given project and location.
func New(ctx context.Context, project, location string, optFns ...func(o *Options)) (*Service, error) {
	if project == "" || location == "" {
		return nil, fmt.Errorf("vertex: project and location are required")
	}

	opts := Options{
		PollInterval: defaultPoll,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Endpoint == "" {
		opts.Endpoint = fmt.Sprintf("https://%s-aiplatform.googleapis.com", location)
	}

	hc := opts.HTTPClient
	if hc == nil {
		ts := opts.TokenSource
		if ts == nil {
			var err error
			ts, err = google.DefaultTokenSource(ctx, authScope)
			if err != nil {
				return nil, fmt.Errorf("vertex: loading default credentials: %w", err)
			}
		}
		hc = oauth2.NewClient(ctx, ts)
	}

	return &Service{
		project:  project,
		location: location,
		endpoint: strings.TrimSuffix(opts.Endpoint, "/"),
		hc:       hc,
		poll:     opts.PollInterval,
		logger:   opts.Logger,
	}, nil
}

// ListCorpora returns all corpora of the configured parent, following
// pagination.
func (s *Service) ListCorpora(ctx context.Context) ([]registry.Corpus, error) {
	parent := registry.Parent(s.project, s.location)
	var all []registry.Corpus
	pageToken := ""
	for {
		q := url.Values{"pageSize": {strconv.Itoa(maxPageSize)}}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		var page struct {
			RagCorpora    []ragCorpus `json:"ragCorpora"`
			NextPageToken string      `json:"nextPageToken"`
		}
		if err := s.do(ctx, http.MethodGet, parent+"/ragCorpora", q, nil, &page); err != nil {
			return nil, fmt.Errorf("listing corpora: %w", err)
		}
		for _, rc := range page.RagCorpora {
			all = append(all, rc.toCorpus())
		}
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// GetCorpus fetches a corpus by resource name.
func (s *Service) GetCorpus(ctx context.Context, name string) (*registry.Corpus, error) {
	var rc ragCorpus
	if err := s.do(ctx, http.MethodGet, name, nil, nil, &rc); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", registry.ErrCorpusNotFound, name)
		}
		return nil, fmt.Errorf("getting corpus %s: %w", name, err)
	}
	c := rc.toCorpus()
	return &c, nil
}

// CreateCorpus provisions a corpus and waits for the operation to finish.
func (s *Service) CreateCorpus(ctx context.Context, displayName, description string) (*registry.Corpus, error) {
	parent := registry.Parent(s.project, s.location)
	body := ragCorpus{DisplayName: displayName, Description: description}
	var op operation
	if err := s.do(ctx, http.MethodPost, parent+"/ragCorpora", nil, body, &op); err != nil {
		return nil, fmt.Errorf("creating corpus %q: %w", displayName, err)
	}
	resp, err := s.awaitOperation(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("creating corpus %q: %w", displayName, err)
	}
	var rc ragCorpus
	if len(resp) > 0 {
		if err := json.Unmarshal(resp, &rc); err != nil {
			return nil, fmt.Errorf("decoding created corpus: %w", err)
		}
	}
	c := rc.toCorpus()
	s.logger.Info("vertex.corpus.created", "name", c.Name, "display_name", c.DisplayName)
	return &c, nil
}

// DeleteCorpus removes a corpus (force delete, including its files) and waits
// for completion.
func (s *Service) DeleteCorpus(ctx context.Context, name string) error {
	q := url.Values{"force": {"true"}}
	var op operation
	if err := s.do(ctx, http.MethodDelete, name, q, nil, &op); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", registry.ErrCorpusNotFound, name)
		}
		return fmt.Errorf("deleting corpus %s: %w", name, err)
	}
	if _, err := s.awaitOperation(ctx, op); err != nil {
		return fmt.Errorf("deleting corpus %s: %w", name, err)
	}
	s.logger.Info("vertex.corpus.deleted", "name", name)
	return nil
}

// ListFiles returns the documents of a corpus, following pagination.
func (s *Service) ListFiles(ctx context.Context, corpusName string) ([]registry.File, error) {
	var all []registry.File
	pageToken := ""
	for {
		q := url.Values{"pageSize": {strconv.Itoa(maxPageSize)}}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		var page struct {
			RagFiles      []ragFile `json:"ragFiles"`
			NextPageToken string    `json:"nextPageToken"`
		}
		if err := s.do(ctx, http.MethodGet, corpusName+"/ragFiles", q, nil, &page); err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("%w: %s", registry.ErrCorpusNotFound, corpusName)
			}
			return nil, fmt.Errorf("listing files of %s: %w", corpusName, err)
		}
		for _, rf := range page.RagFiles {
			all = append(all, rf.toFile())
		}
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// ImportFiles ingests gs:// URIs and Google Drive URLs. Mixed batches are
// split per source kind since one import request carries a single source.
func (s *Service) ImportFiles(ctx context.Context, corpusName string, sources []string) (*registry.ImportResult, error) {
	var gcsURIs []string
	var driveIDs []driveResourceID
	for _, src := range sources {
		switch {
		case strings.HasPrefix(src, "gs://"):
			gcsURIs = append(gcsURIs, src)
		case driveFilePattern.MatchString(src):
			id := driveFilePattern.FindStringSubmatch(src)[1]
			driveIDs = append(driveIDs, driveResourceID{ResourceID: id, ResourceType: "RESOURCE_TYPE_FILE"})
		case driveFolderPattern.MatchString(src):
			id := driveFolderPattern.FindStringSubmatch(src)[1]
			driveIDs = append(driveIDs, driveResourceID{ResourceID: id, ResourceType: "RESOURCE_TYPE_FOLDER"})
		default:
			return nil, fmt.Errorf("unsupported import source %q", src)
		}
	}

	total := &registry.ImportResult{}
	if len(gcsURIs) > 0 {
		cfg := importConfig{GCSSource: &gcsSource{URIs: gcsURIs}}
		if err := s.importBatch(ctx, corpusName, cfg, total); err != nil {
			return nil, err
		}
	}
	if len(driveIDs) > 0 {
		cfg := importConfig{GoogleDriveSource: &googleDriveSource{ResourceIDs: driveIDs}}
		if err := s.importBatch(ctx, corpusName, cfg, total); err != nil {
			return nil, err
		}
	}
	s.logger.Info("vertex.files.imported", "corpus", corpusName, "imported", total.Imported, "skipped", total.Skipped, "failed", total.Failed)
	return total, nil
}

func (s *Service) importBatch(ctx context.Context, corpusName string, cfg importConfig, total *registry.ImportResult) error {
	body := map[string]importConfig{"importRagFilesConfig": cfg}
	var op operation
	if err := s.do(ctx, http.MethodPost, corpusName+"/ragFiles:import", nil, body, &op); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", registry.ErrCorpusNotFound, corpusName)
		}
		return fmt.Errorf("importing into %s: %w", corpusName, err)
	}
	resp, err := s.awaitOperation(ctx, op)
	if err != nil {
		return fmt.Errorf("importing into %s: %w", corpusName, err)
	}
	var ir importResponse
	if len(resp) > 0 {
		if err := json.Unmarshal(resp, &ir); err != nil {
			return fmt.Errorf("decoding import result: %w", err)
		}
	}
	total.Imported += int(ir.Imported)
	total.Skipped += int(ir.Skipped)
	total.Failed += int(ir.Failed)
	return nil
}

// DeleteFile removes a single document and waits for completion.
func (s *Service) DeleteFile(ctx context.Context, fileName string) error {
	var op operation
	if err := s.do(ctx, http.MethodDelete, fileName, nil, nil, &op); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", registry.ErrFileNotFound, fileName)
		}
		return fmt.Errorf("deleting file %s: %w", fileName, err)
	}
	if _, err := s.awaitOperation(ctx, op); err != nil {
		return fmt.Errorf("deleting file %s: %w", fileName, err)
	}
	s.logger.Info("vertex.file.deleted", "name", fileName)
	return nil
}

// Query retrieves relevant passages via the retrieveContexts endpoint.
func (s *Service) Query(ctx context.Context, corpusName, text string, topK int, threshold float64) ([]registry.Chunk, error) {
	parent := registry.Parent(s.project, s.location)
	body := retrieveRequest{
		Query: retrieveQuery{Text: text, SimilarityTopK: topK},
		VertexRagStore: vertexRagStore{
			RagResources:            []ragResource{{RagCorpus: corpusName}},
			VectorDistanceThreshold: threshold,
		},
	}
	var resp retrieveResponse
	if err := s.do(ctx, http.MethodPost, parent+":retrieveContexts", nil, body, &resp); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", registry.ErrCorpusNotFound, corpusName)
		}
		return nil, fmt.Errorf("querying %s: %w", corpusName, err)
	}
	chunks := make([]registry.Chunk, 0, len(resp.Contexts.Contexts))
	for _, c := range resp.Contexts.Contexts {
		source := c.SourceDisplayName
		if source == "" {
			source = c.SourceURI
		}
		chunks = append(chunks, registry.Chunk{Source: source, Text: c.Text, Score: c.Score})
	}
	return chunks, nil
}

// awaitOperation polls a long-running operation until done, honoring context
// cancellation between polls.
func (s *Service) awaitOperation(ctx context.Context, op operation) (json.RawMessage, error) {
	for {
		if op.Done {
			if op.Error != nil {
				return nil, fmt.Errorf("operation %s failed: %s (code %d)", op.Name, op.Error.Message, op.Error.Code)
			}
			return op.Response, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.poll):
		}
		var next operation
		if err := s.do(ctx, http.MethodGet, op.Name, nil, nil, &next); err != nil {
			return nil, fmt.Errorf("polling operation %s: %w", op.Name, err)
		}
		op = next
	}
}

// do issues one JSON request against the API and decodes the response into
// out when non-nil.
func (s *Service) do(ctx context.Context, method, resource string, q url.Values, body, out any) error {
	u := fmt.Sprintf("%s/%s/%s", s.endpoint, apiVersion, resource)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("vertex.request", "method", method, "resource", resource)

	resp, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("calling registry: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// statusError carries the HTTP status and decoded API error payload.
type statusError struct {
	StatusCode int
	Message    string
	Status     string
}

func newStatusError(code int, body []byte) *statusError {
	se := &statusError{StatusCode: code, Message: http.StatusText(code)}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		se.Message = envelope.Error.Message
		se.Status = envelope.Error.Status
	}
	return se
}

func (e *statusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("registry returned %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("registry returned %d: %s", e.StatusCode, e.Message)
}

func isNotFound(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusNotFound
	}
	return false
}

// wire shapes (v1beta1 JSON)

type ragCorpus struct {
	Name        string    `json:"name,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	Description string    `json:"description,omitempty"`
	CreateTime  time.Time `json:"createTime,omitzero"`
	UpdateTime  time.Time `json:"updateTime,omitzero"`
}

func (rc ragCorpus) toCorpus() registry.Corpus {
	return registry.Corpus{
		Name:        rc.Name,
		DisplayName: rc.DisplayName,
		Description: rc.Description,
		CreateTime:  rc.CreateTime,
		UpdateTime:  rc.UpdateTime,
	}
}

type ragFile struct {
	Name        string     `json:"name,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
	Description string     `json:"description,omitempty"`
	GCSSource   *gcsSource `json:"gcsSource,omitempty"`
	CreateTime  time.Time  `json:"createTime,omitzero"`
	UpdateTime  time.Time  `json:"updateTime,omitzero"`
}

func (rf ragFile) toFile() registry.File {
	f := registry.File{
		Name:        rf.Name,
		DisplayName: rf.DisplayName,
		Description: rf.Description,
		CreateTime:  rf.CreateTime,
		UpdateTime:  rf.UpdateTime,
	}
	if rf.GCSSource != nil && len(rf.GCSSource.URIs) > 0 {
		f.Source = rf.GCSSource.URIs[0]
	}
	return f
}

type gcsSource struct {
	URIs []string `json:"uris"`
}

type driveResourceID struct {
	ResourceID   string `json:"resourceId"`
	ResourceType string `json:"resourceType"`
}

type googleDriveSource struct {
	ResourceIDs []driveResourceID `json:"resourceIds"`
}

type importConfig struct {
	GCSSource         *gcsSource         `json:"gcsSource,omitempty"`
	GoogleDriveSource *googleDriveSource `json:"googleDriveSource,omitempty"`
}

// flexInt64 tolerates the string encoding googleapis JSON uses for int64.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing int64 %q: %w", s, err)
	}
	*f = flexInt64(v)
	return nil
}

type importResponse struct {
	Imported flexInt64 `json:"importedRagFilesCount"`
	Skipped  flexInt64 `json:"skippedRagFilesCount"`
	Failed   flexInt64 `json:"failedRagFilesCount"`
}

type operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *operationError `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ragResource struct {
	RagCorpus string `json:"ragCorpus"`
}

type vertexRagStore struct {
	RagResources            []ragResource `json:"ragResources"`
	VectorDistanceThreshold float64       `json:"vectorDistanceThreshold,omitempty"`
}

type retrieveQuery struct {
	Text           string `json:"text"`
	SimilarityTopK int    `json:"similarityTopK,omitempty"`
}

type retrieveRequest struct {
	VertexRagStore vertexRagStore `json:"vertexRagStore"`
	Query          retrieveQuery  `json:"query"`
}

type retrieveContext struct {
	SourceURI         string  `json:"sourceUri,omitempty"`
	SourceDisplayName string  `json:"sourceDisplayName,omitempty"`
	Text              string  `json:"text"`
	Score             float64 `json:"score,omitempty"`
}

type retrieveResponse struct {
	Contexts struct {
		Contexts []retrieveContext `json:"contexts"`
	} `json:"contexts"`
}
