package ragtool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/registry"
	"github.com/hupe1980/ragmesh/tool"
)

// deleteDocumentTool removes a single document from a corpus.
type deleteDocumentTool struct {
	ts *Toolset
}

func (t *deleteDocumentTool) Name() string { return "delete_document" }

func (t *deleteDocumentTool) Description() string {
	return "Delete a single document from a corpus by its document ID. " +
		"Document IDs are listed by get_corpus_info. Targets the current corpus when corpus_name is omitted."
}

func (t *deleteDocumentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"corpus_name": map[string]any{
				"type":        "string",
				"description": "Corpus containing the document. Leave empty for the current corpus.",
			},
			"document_id": map[string]any{
				"type":        "string",
				"description": "ID of the document to delete",
			},
		},
		"required": []string{"document_id"},
	}
}

func (t *deleteDocumentTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	documentID, ok := stringArg(args, "document_id")
	if !ok {
		return nil, tool.NewToolError(t.Name(), "document_id parameter is required", "VALIDATION_ERROR")
	}

	corpusName, _ := stringArg(args, "corpus_name")
	handle, failure := t.ts.resolveTarget(tc, corpusName)
	if failure != nil {
		return failure, nil
	}

	fileName := registry.FileName(handle.Name, documentID)
	if err := t.ts.svc.DeleteFile(tc.Context(), fileName); err != nil {
		if errors.Is(err, registry.ErrFileNotFound) {
			return errorResult(fmt.Sprintf("Document '%s' was not found in corpus '%s'.", documentID, handle.DisplayName)), nil
		}
		return errorResult(fmt.Sprintf("Error deleting document '%s': %v", documentID, err)), nil
	}

	return map[string]any{
		"status":      "success",
		"message":     fmt.Sprintf("Document '%s' deleted from corpus '%s'.", documentID, handle.DisplayName),
		"corpus_name": handle.Name,
		"document_id": documentID,
	}, nil
}
