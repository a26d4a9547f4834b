package ragtool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/registry"
	"github.com/hupe1980/ragmesh/resolve"
	"github.com/hupe1980/ragmesh/tool"
)

func newFixture() (*Toolset, *registry.InMemory, *core.Session) {
	svc := registry.NewInMemory("p", "l")
	ts := New(resolve.Config{Project: "p", Location: "l"}, svc)
	return ts, svc, core.NewSession("sess-rag")
}

func toolByName(t *testing.T, ts *Toolset, name string) tool.Tool {
	t.Helper()
	for _, tl := range ts.Tools() {
		if tl.Name() == name {
			return tl
		}
	}
	t.Fatalf("tool %q not registered", name)
	return nil
}

func callTool(t *testing.T, sess *core.Session, tl tool.Tool, args map[string]any) map[string]any {
	t.Helper()
	tc := core.NewToolContext(context.Background(), sess, core.NewID(), nil)
	res, err := tl.Call(tc, args)
	require.NoError(t, err)
	m, ok := res.(map[string]any)
	require.True(t, ok, "tool results are structured maps")
	return m
}

func TestToolset_RegistersAllTools(t *testing.T) {
	ts, _, _ := newFixture()

	var names []string
	for _, tl := range ts.Tools() {
		names = append(names, tl.Name())
		assert.NotEmpty(t, tl.Description())
		assert.Equal(t, "object", tl.Parameters()["type"])
	}

	assert.ElementsMatch(t, []string{
		"create_corpus", "list_corpora", "add_data", "get_corpus_info",
		"delete_document", "delete_corpus", "rag_query",
	}, names)
}

// -------------------- create_corpus --------------------

func TestCreateCorpus(t *testing.T) {
	ts, svc, sess := newFixture()
	create := toolByName(t, ts, "create_corpus")

	res := callTool(t, sess, create, map[string]any{"corpus_name": "Eng Docs (v2)"})
	assert.Equal(t, "success", res["status"])
	assert.Equal(t, true, res["corpus_created"])
	assert.Equal(t, "Eng_Docs__v2_", res["display_name"], "display name uses the registry charset")

	corpora, err := svc.ListCorpora(context.Background())
	require.NoError(t, err)
	require.Len(t, corpora, 1)

	cache := resolve.NewCache(sess)
	assert.True(t, cache.HasConfirmedExistence("Eng Docs (v2)"))
	current, ok := cache.Current()
	require.True(t, ok)
	assert.Equal(t, "Eng Docs (v2)", current, "created corpus becomes the current one")
}

func TestCreateCorpus_AlreadyExists(t *testing.T) {
	ts, svc, sess := newFixture()
	create := toolByName(t, ts, "create_corpus")

	callTool(t, sess, create, map[string]any{"corpus_name": "Notes"})
	res := callTool(t, sess, create, map[string]any{"corpus_name": "Notes"})

	assert.Equal(t, "info", res["status"])
	assert.Equal(t, false, res["corpus_created"])

	corpora, _ := svc.ListCorpora(context.Background())
	assert.Len(t, corpora, 1, "no duplicate corpus created")
}

func TestCreateCorpus_MissingName(t *testing.T) {
	ts, _, sess := newFixture()
	create := toolByName(t, ts, "create_corpus")

	tc := core.NewToolContext(context.Background(), sess, core.NewID(), nil)
	_, err := create.Call(tc, map[string]any{})
	require.Error(t, err)
	toolErr, ok := err.(*tool.ToolError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

// -------------------- list_corpora --------------------

func TestListCorpora(t *testing.T) {
	ts, svc, sess := newFixture()
	list := toolByName(t, ts, "list_corpora")

	res := callTool(t, sess, list, map[string]any{})
	assert.Equal(t, "success", res["status"])
	assert.Equal(t, 0, res["count"])

	_, err := svc.CreateCorpus(context.Background(), "Notes", "")
	require.NoError(t, err)
	_, err = svc.CreateCorpus(context.Background(), "Reports", "")
	require.NoError(t, err)

	res = callTool(t, sess, list, map[string]any{})
	assert.Equal(t, 2, res["count"])
	entries := res["corpora"].([]map[string]any)
	require.Len(t, entries, 2)
	assert.Equal(t, "Notes", entries[0]["display_name"], "listing order preserved")
	assert.Contains(t, entries[0]["name"], "ragCorpora/")
}

// -------------------- add_data --------------------

func TestAddData(t *testing.T) {
	ts, svc, sess := newFixture()
	_, err := svc.CreateCorpus(context.Background(), "Notes", "")
	require.NoError(t, err)

	add := toolByName(t, ts, "add_data")
	res := callTool(t, sess, add, map[string]any{
		"corpus_name": "Notes",
		"paths": []any{
			"gs://bucket/handbook.pdf",
			"https://docs.google.com/document/d/abc123/edit",
			"not-a-path",
		},
	})

	assert.Equal(t, "success", res["status"])
	assert.Equal(t, 2, res["files_imported"])
	assert.Equal(t, []string{"not-a-path"}, res["invalid_paths"])
	assert.Contains(t, res["message"], "converted to Drive URLs")

	paths := res["paths"].([]string)
	assert.Contains(t, paths, "https://drive.google.com/file/d/abc123/view", "Docs URL rewritten")

	corpora, _ := svc.ListCorpora(context.Background())
	files, err := svc.ListFiles(context.Background(), corpora[0].Name)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	current, ok := resolve.NewCache(sess).Current()
	require.True(t, ok)
	assert.Equal(t, "Notes", current, "explicitly targeted corpus becomes current")
}

func TestAddData_NoValidPaths(t *testing.T) {
	ts, _, sess := newFixture()
	add := toolByName(t, ts, "add_data")

	res := callTool(t, sess, add, map[string]any{
		"corpus_name": "Notes",
		"paths":       []any{"ftp://old/server", ""},
	})
	assert.Equal(t, "error", res["status"])
	assert.Equal(t, []string{"ftp://old/server"}, res["invalid_paths"])
}

func TestAddData_NoTarget(t *testing.T) {
	ts, _, sess := newFixture()
	add := toolByName(t, ts, "add_data")

	res := callTool(t, sess, add, map[string]any{
		"paths": []any{"gs://bucket/doc.pdf"},
	})
	assert.Equal(t, "error", res["status"])
	assert.Contains(t, res["message"], "No corpus specified")
}

func TestAddData_MissingPaths(t *testing.T) {
	ts, _, sess := newFixture()
	add := toolByName(t, ts, "add_data")

	tc := core.NewToolContext(context.Background(), sess, core.NewID(), nil)
	_, err := add.Call(tc, map[string]any{"corpus_name": "Notes"})
	require.Error(t, err)
	toolErr, ok := err.(*tool.ToolError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

// -------------------- get_corpus_info --------------------

func TestGetCorpusInfo(t *testing.T) {
	ts, svc, sess := newFixture()
	c, err := svc.CreateCorpus(context.Background(), "Engineering Docs", "design notes")
	require.NoError(t, err)
	_, err = svc.PutDocument(context.Background(), c.Name, "handbook.md", "release process and style guide")
	require.NoError(t, err)

	info := toolByName(t, ts, "get_corpus_info")

	// partial identifier resolves fuzzily
	res := callTool(t, sess, info, map[string]any{"corpus_name": "engineering"})
	assert.Equal(t, "success", res["status"])
	assert.Equal(t, c.Name, res["corpus_name"])
	assert.Equal(t, "design notes", res["description"])
	assert.Equal(t, 1, res["file_count"])

	files := res["files"].([]map[string]any)
	require.Len(t, files, 1)
	assert.Equal(t, "handbook.md", files[0]["display_name"])
	assert.NotEmpty(t, files[0]["document_id"])
}

// -------------------- delete_document --------------------

func TestDeleteDocument(t *testing.T) {
	ts, svc, sess := newFixture()
	c, err := svc.CreateCorpus(context.Background(), "Notes", "")
	require.NoError(t, err)
	f, err := svc.PutDocument(context.Background(), c.Name, "old.md", "obsolete content")
	require.NoError(t, err)

	del := toolByName(t, ts, "delete_document")
	res := callTool(t, sess, del, map[string]any{
		"corpus_name": "Notes",
		"document_id": registry.CorpusID(f.Name),
	})
	assert.Equal(t, "success", res["status"])

	files, err := svc.ListFiles(context.Background(), c.Name)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDeleteDocument_UnknownID(t *testing.T) {
	ts, svc, sess := newFixture()
	_, err := svc.CreateCorpus(context.Background(), "Notes", "")
	require.NoError(t, err)

	del := toolByName(t, ts, "delete_document")
	res := callTool(t, sess, del, map[string]any{
		"corpus_name": "Notes",
		"document_id": "nope",
	})
	assert.Equal(t, "error", res["status"])
	assert.Contains(t, res["message"], "not found")
}

// -------------------- delete_corpus --------------------

func TestDeleteCorpus_RequiresConfirm(t *testing.T) {
	ts, svc, sess := newFixture()
	_, err := svc.CreateCorpus(context.Background(), "Doomed", "")
	require.NoError(t, err)

	del := toolByName(t, ts, "delete_corpus")

	res := callTool(t, sess, del, map[string]any{"corpus_name": "Doomed"})
	assert.Equal(t, "info", res["status"])
	assert.Contains(t, res["message"], "confirm=true")

	res = callTool(t, sess, del, map[string]any{"corpus_name": "Doomed", "confirm": false})
	assert.Equal(t, "info", res["status"])

	corpora, _ := svc.ListCorpora(context.Background())
	assert.Len(t, corpora, 1, "unconfirmed deletion must not touch the registry")
}

func TestDeleteCorpus(t *testing.T) {
	ts, svc, sess := newFixture()
	_, err := svc.CreateCorpus(context.Background(), "Doomed", "")
	require.NoError(t, err)

	// confirm existence first so the cache has something to invalidate
	query := toolByName(t, ts, "rag_query")
	callTool(t, sess, query, map[string]any{"corpus_name": "Doomed", "query": "anything"})

	del := toolByName(t, ts, "delete_corpus")
	res := callTool(t, sess, del, map[string]any{"corpus_name": "Doomed", "confirm": true})
	assert.Equal(t, "success", res["status"])

	corpora, _ := svc.ListCorpora(context.Background())
	assert.Empty(t, corpora)

	cache := resolve.NewCache(sess)
	assert.False(t, cache.HasConfirmedExistence("Doomed"), "existence flag invalidated")
	_, ok := cache.Current()
	assert.True(t, ok, "current corpus marker survives deletion")

	// the stale marker now fails loudly against the live listing
	res = callTool(t, sess, query, map[string]any{"query": "anything"})
	assert.Equal(t, "error", res["status"])
	assert.Contains(t, res["message"], "not found")
}

// -------------------- rag_query --------------------

func TestRagQuery(t *testing.T) {
	ts, svc, sess := newFixture()
	c, err := svc.CreateCorpus(context.Background(), "Engineering Docs", "")
	require.NoError(t, err)
	_, err = svc.PutDocument(context.Background(), c.Name, "process.md", "the release process requires a signed tag")
	require.NoError(t, err)
	_, err = svc.PutDocument(context.Background(), c.Name, "style.md", "gofmt settles all formatting arguments")
	require.NoError(t, err)

	query := toolByName(t, ts, "rag_query")
	res := callTool(t, sess, query, map[string]any{
		"corpus_name": "engineering",
		"query":       "release process",
	})

	assert.Equal(t, "success", res["status"])
	assert.Equal(t, 1, res["results_count"])
	results := res["results"].([]map[string]any)
	require.Len(t, results, 1)
	assert.Contains(t, results[0]["text"], "release process")
	assert.Equal(t, "process.md", results[0]["source"])
}

func TestRagQuery_NoResults(t *testing.T) {
	ts, svc, sess := newFixture()
	_, err := svc.CreateCorpus(context.Background(), "Notes", "")
	require.NoError(t, err)

	query := toolByName(t, ts, "rag_query")
	res := callTool(t, sess, query, map[string]any{
		"corpus_name": "Notes",
		"query":       "quantum chromodynamics",
	})
	assert.Equal(t, "warning", res["status"])
	assert.Equal(t, 0, res["results_count"])
}

func TestRagQuery_UsesCurrentCorpus(t *testing.T) {
	ts, svc, sess := newFixture()
	c, err := svc.CreateCorpus(context.Background(), "Notes", "")
	require.NoError(t, err)
	_, err = svc.PutDocument(context.Background(), c.Name, "todo.md", "ship the retrieval gateway")
	require.NoError(t, err)

	resolve.NewCache(sess).SetCurrent("Notes")

	query := toolByName(t, ts, "rag_query")
	res := callTool(t, sess, query, map[string]any{"query": "retrieval gateway"})
	assert.Equal(t, "success", res["status"])
	assert.Equal(t, c.Name, res["corpus_name"])
}

func TestRagQuery_MissingQuery(t *testing.T) {
	ts, _, sess := newFixture()
	query := toolByName(t, ts, "rag_query")

	tc := core.NewToolContext(context.Background(), sess, core.NewID(), nil)
	_, err := query.Call(tc, map[string]any{"corpus_name": "Notes"})
	require.Error(t, err)
	toolErr, ok := err.(*tool.ToolError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

// -------------------- source normalization --------------------

func TestNormalizeSources(t *testing.T) {
	valid, invalid, conversions := normalizeSources([]string{
		"gs://bucket/a.pdf",
		"https://drive.google.com/file/d/f1/view",
		"https://drive.google.com/drive/folders/dir9",
		"https://docs.google.com/spreadsheets/d/s42/edit#gid=0",
		"https://example.com/page",
		"  ",
	})

	assert.Equal(t, []string{
		"gs://bucket/a.pdf",
		"https://drive.google.com/file/d/f1/view",
		"https://drive.google.com/drive/folders/dir9",
		"https://drive.google.com/file/d/s42/view",
	}, valid)
	assert.Equal(t, []string{"https://example.com/page"}, invalid)
	assert.Equal(t, map[string]string{
		"https://docs.google.com/spreadsheets/d/s42/edit#gid=0": "https://drive.google.com/file/d/s42/view",
	}, conversions)
}
