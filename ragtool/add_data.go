package ragtool

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/resolve"
	"github.com/hupe1980/ragmesh/tool"
)

var (
	// docsURLPattern matches Google Docs, Sheets and Slides URLs. The
	// captured document ID is valid as a Drive file ID.
	docsURLPattern = regexp.MustCompile(`^https://docs\.google\.com/(?:document|spreadsheets|presentation)/d/([a-zA-Z0-9_-]+)`)

	// driveURLPattern matches Drive file and folder URLs that the registry
	// ingests directly.
	driveURLPattern = regexp.MustCompile(`^https://drive\.google\.com/(?:file/d/|drive/folders/)[a-zA-Z0-9_-]+`)
)

// addDataTool imports documents into a corpus.
type addDataTool struct {
	ts *Toolset
}

func (t *addDataTool) Name() string { return "add_data" }

func (t *addDataTool) Description() string {
	return "Add documents to a corpus from Cloud Storage (gs:// paths) or Google Drive " +
		"(file, folder, Docs, Sheets or Slides URLs). Targets the current corpus when corpus_name is omitted."
}

func (t *addDataTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"corpus_name": map[string]any{
				"type":        "string",
				"description": "Corpus to add documents to. Leave empty for the current corpus.",
			},
			"paths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Document locations: gs:// paths or Google Drive / Docs / Sheets / Slides URLs",
			},
		},
		"required": []string{"paths"},
	}
}

// Call validates and normalizes the given paths, resolves the target corpus
// and imports everything valid in one registry operation. Docs, Sheets and
// Slides URLs are rewritten to Drive file URLs since the registry ingests
// those documents through the Drive API.
func (t *addDataTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	paths, err := pathsArg(args)
	if err != nil {
		return nil, tool.NewToolError(t.Name(), err.Error(), "VALIDATION_ERROR")
	}

	valid, invalid, conversions := normalizeSources(paths)
	if len(valid) == 0 {
		result := errorResult("No valid paths given. Provide gs:// paths or Google Drive URLs.")
		result["invalid_paths"] = invalid
		return result, nil
	}

	corpusName, _ := stringArg(args, "corpus_name")
	handle, failure := t.ts.resolveTarget(tc, corpusName)
	if failure != nil {
		return failure, nil
	}

	imported, err := t.ts.svc.ImportFiles(tc.Context(), handle.Name, valid)
	if err != nil {
		return errorResult(fmt.Sprintf("Error importing into corpus '%s': %v", handle.DisplayName, err)), nil
	}

	// an explicitly named corpus becomes the implicit target for follow-up
	// queries; when corpus_name was omitted the current corpus was already
	// the target
	if corpusName != "" {
		resolve.NewCache(tc).SetCurrent(corpusName)
	}

	message := fmt.Sprintf("Imported %d file(s) into corpus '%s'.", imported.Imported, handle.DisplayName)
	if len(conversions) > 0 {
		message += fmt.Sprintf(" (%d Docs/Sheets/Slides URL(s) were converted to Drive URLs.)", len(conversions))
	}

	result := map[string]any{
		"status":         "success",
		"message":        message,
		"corpus_name":    handle.Name,
		"display_name":   handle.DisplayName,
		"files_imported": imported.Imported,
		"files_skipped":  imported.Skipped,
		"files_failed":   imported.Failed,
		"paths":          valid,
	}
	if len(invalid) > 0 {
		result["invalid_paths"] = invalid
	}

	return result, nil
}

// pathsArg extracts the paths argument, accepting the JSON-decoded []any
// shape as well as []string from direct Go callers.
func pathsArg(args map[string]any) ([]string, error) {
	raw, ok := args["paths"]
	if !ok {
		return nil, fmt.Errorf("paths parameter is required")
	}

	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		paths := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("paths must be an array of strings")
			}
			paths = append(paths, s)
		}
		return paths, nil
	default:
		return nil, fmt.Errorf("paths must be an array of strings")
	}
}

// normalizeSources partitions paths into registry-ingestible sources and
// rejects, rewriting Docs/Sheets/Slides URLs to Drive file URLs along the
// way. conversions maps original URL to rewritten URL.
func normalizeSources(paths []string) (valid []string, invalid []string, conversions map[string]string) {
	conversions = map[string]string{}

	for _, p := range paths {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
			continue
		case strings.HasPrefix(p, "gs://"):
			valid = append(valid, p)
		case docsURLPattern.MatchString(p):
			id := docsURLPattern.FindStringSubmatch(p)[1]
			rewritten := fmt.Sprintf("https://drive.google.com/file/d/%s/view", id)
			conversions[p] = rewritten
			valid = append(valid, rewritten)
		case driveURLPattern.MatchString(p):
			valid = append(valid, p)
		default:
			invalid = append(invalid, p)
		}
	}

	return valid, invalid, conversions
}
