package syncclient

import (
	"context"
	"fmt"

	"linguaflow/internal/api"
	"linguaflow/internal/fileutil"
)

// SyncOptions parameterizes one sync run.
type SyncOptions struct {
	ProjectID int64
	FilePath  string
	Lang      string
	Namespace string
	Deprecate []string
}

// SyncResult reports what a sync run did.
type SyncResult struct {
	Pulled   int
	Pushed   api.PushResponse
	FilePath string
}

// Sync runs the full pull, merge, push cycle and rewrites the local file
// with the merged map. Local edits take precedence over server values;
// server-only keys fill the gaps.
func (c *Client) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	if opts.ProjectID <= 0 {
		return nil, fmt.Errorf("project id is required")
	}
	path := opts.FilePath
	if path == "" {
		path = DefaultFileName
	}

	snapshot, err := c.Pull(ctx, opts.ProjectID, opts.Lang, opts.Namespace)
	if err != nil {
		return nil, fmt.Errorf("pull: %w", err)
	}

	local, err := ReadTranslationFile(path)
	if err != nil {
		return nil, err
	}

	merged := Merge(snapshot.Translations, local)

	pushed, err := c.Push(ctx, api.PushRequest{
		ProjectID:    opts.ProjectID,
		Translations: merged,
		Lang:         opts.Lang,
		Deprecate:    opts.Deprecate,
	})
	if err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}

	// Keep the pre-sync file around; the merge silently favors local edits
	// and a .bak gives the user a way back after a bad one.
	if err := fileutil.BackupFile(path); err != nil {
		return nil, err
	}
	if err := WriteTranslationFile(path, merged); err != nil {
		return nil, err
	}

	pulled := 0
	for _, keys := range snapshot.Translations {
		pulled += len(keys)
	}
	return &SyncResult{Pulled: pulled, Pushed: *pushed, FilePath: path}, nil
}
