package snapshot

import (
	"fmt"

	"github.com/fakeyudi/trackhook/internal/activity"
	"github.com/fakeyudi/trackhook/internal/session"
)

// Materialize rebuilds the snapshot from log and st, renders it with r and
// overwrites the document at path.
func Materialize(log *activity.Log, st *session.State, opts Options, r Renderer, path string) (*Snapshot, error) {
	opts = opts.withDefaults()
	snap := Build(log.Scan(activity.Today(opts.Now)), st, opts)

	if r == nil {
		r = &MarkdownRenderer{}
	}
	data, err := r.Render(snap)
	if err != nil {
		return nil, fmt.Errorf("render snapshot: %w", err)
	}
	if err := Write(path, data); err != nil {
		return nil, err
	}
	return snap, nil
}
