package vertex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/ragmesh/registry"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc, err := New(context.Background(), "p", "l", func(o *Options) {
		o.Endpoint = srv.URL
		o.HTTPClient = srv.Client()
		o.PollInterval = time.Millisecond
	})
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestListCorpora_Pagination(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta1/projects/p/locations/l/ragCorpora" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("pageToken") == "" {
			fmt.Fprint(w, `{"ragCorpora":[{"name":"projects/p/locations/l/ragCorpora/1","displayName":"one"}],"nextPageToken":"t2"}`)
			return
		}
		fmt.Fprint(w, `{"ragCorpora":[{"name":"projects/p/locations/l/ragCorpora/2","displayName":"two"}]}`)
	}))

	corpora, err := svc.ListCorpora(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(corpora) != 2 {
		t.Fatalf("expected 2 corpora, got %d", len(corpora))
	}
	if corpora[0].DisplayName != "one" || corpora[1].DisplayName != "two" {
		t.Errorf("pages out of order: %+v", corpora)
	}
}

func TestCreateCorpus_PollsOperation(t *testing.T) {
	var polls atomic.Int32
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			var body struct {
				DisplayName string `json:"displayName"`
			}
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &body)
			if body.DisplayName != "notes" {
				t.Errorf("displayName = %q", body.DisplayName)
			}
			fmt.Fprint(w, `{"name":"projects/p/locations/l/operations/op1","done":false}`)
		case r.Method == http.MethodGet:
			if polls.Add(1) < 2 {
				fmt.Fprint(w, `{"name":"projects/p/locations/l/operations/op1","done":false}`)
				return
			}
			fmt.Fprint(w, `{"name":"projects/p/locations/l/operations/op1","done":true,"response":{"name":"projects/p/locations/l/ragCorpora/9","displayName":"notes"}}`)
		}
	}))

	c, err := svc.CreateCorpus(context.Background(), "notes", "")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "projects/p/locations/l/ragCorpora/9" {
		t.Errorf("unexpected corpus %+v", c)
	}
	if polls.Load() < 2 {
		t.Errorf("expected at least 2 polls, got %d", polls.Load())
	}
}

func TestCreateCorpus_OperationError(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"op2","done":true,"error":{"code":8,"message":"quota exceeded"}}`)
	}))

	_, err := svc.CreateCorpus(context.Background(), "notes", "")
	if err == nil || !contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected operation error, got %v", err)
	}
}

func TestDeleteCorpus_NotFound(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"corpus does not exist","status":"NOT_FOUND"}}`)
	}))

	err := svc.DeleteCorpus(context.Background(), "projects/p/locations/l/ragCorpora/ghost")
	if !errors.Is(err, registry.ErrCorpusNotFound) {
		t.Fatalf("expected ErrCorpusNotFound, got %v", err)
	}
}

func TestImportFiles_PartitionsSources(t *testing.T) {
	var bodies []string
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			raw, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(raw))
			fmt.Fprint(w, `{"name":"op3","done":true,"response":{"importedRagFilesCount":"2","skippedRagFilesCount":"1"}}`)
			return
		}
		t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
	}))

	res, err := svc.ImportFiles(context.Background(), "projects/p/locations/l/ragCorpora/1", []string{
		"gs://bucket/a.pdf",
		"https://drive.google.com/file/d/abc123/view",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 import requests, got %d", len(bodies))
	}
	if !contains(bodies[0], `"uris":["gs://bucket/a.pdf"]`) {
		t.Errorf("gcs body = %s", bodies[0])
	}
	if !contains(bodies[1], `"resourceId":"abc123"`) || !contains(bodies[1], "RESOURCE_TYPE_FILE") {
		t.Errorf("drive body = %s", bodies[1])
	}
	// counts summed across batches, string-encoded int64 tolerated
	if res.Imported != 4 || res.Skipped != 2 {
		t.Errorf("unexpected totals: %+v", res)
	}
}

func TestImportFiles_RejectsUnknownSource(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued")
	}))

	_, err := svc.ImportFiles(context.Background(), "projects/p/locations/l/ragCorpora/1", []string{"ftp://host/file"})
	if err == nil {
		t.Fatal("expected error for unsupported source")
	}
}

func TestQuery_MapsContexts(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta1/projects/p/locations/l:retrieveContexts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		var req retrieveRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Query.Text != "release process" || req.Query.SimilarityTopK != 5 {
			t.Errorf("unexpected query: %+v", req.Query)
		}
		if len(req.VertexRagStore.RagResources) != 1 || req.VertexRagStore.RagResources[0].RagCorpus != "projects/p/locations/l/ragCorpora/1" {
			t.Errorf("unexpected store: %+v", req.VertexRagStore)
		}
		fmt.Fprint(w, `{"contexts":{"contexts":[{"sourceDisplayName":"release.md","text":"tag first","score":0.82},{"sourceUri":"gs://b/d.md","text":"then ship","score":0.5}]}}`)
	}))

	chunks, err := svc.Query(context.Background(), "projects/p/locations/l/ragCorpora/1", "release process", 5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Source != "release.md" || chunks[0].Score != 0.82 {
		t.Errorf("chunk 0 = %+v", chunks[0])
	}
	if chunks[1].Source != "gs://b/d.md" {
		t.Errorf("chunk 1 should fall back to sourceUri: %+v", chunks[1])
	}
}

func TestNew_RequiresProjectAndLocation(t *testing.T) {
	if _, err := New(context.Background(), "", "l"); err == nil {
		t.Error("empty project should fail")
	}
	if _, err := New(context.Background(), "p", ""); err == nil {
		t.Error("empty location should fail")
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
