package ragtool

import (
	"fmt"
	"time"

	"github.com/hupe1980/ragmesh/core"
)

// listCorporaTool lists all corpora in the registry.
type listCorporaTool struct {
	ts *Toolset
}

func (t *listCorporaTool) Name() string { return "list_corpora" }

func (t *listCorporaTool) Description() string {
	return "List all available corpora with their resource names and display names. " +
		"Resource names returned here can be passed to any other corpus tool."
}

func (t *listCorporaTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *listCorporaTool) Call(tc *core.ToolContext, _ map[string]any) (any, error) {
	corpora, err := t.ts.svc.ListCorpora(tc.Context())
	if err != nil {
		return registryUnavailable(err), nil
	}

	entries := make([]map[string]any, 0, len(corpora))
	for _, c := range corpora {
		entry := map[string]any{
			"name":         c.Name,
			"display_name": c.DisplayName,
		}
		if !c.CreateTime.IsZero() {
			entry["create_time"] = c.CreateTime.Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}

	return map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Found %d corpora.", len(entries)),
		"corpora": entries,
		"count":   len(entries),
	}, nil
}
