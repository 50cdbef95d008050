package filesystem

import (
	"context"
	"sort"
	"time"
)

// DefaultDebounce is the quiet period before a batch of changes is flushed.
const DefaultDebounce = 2 * time.Second

// Debounce groups changes into batches and calls flush once no new change
// arrived for wait. Repeated events for a path collapse into the last one.
// Pending changes are flushed when the channel closes; Debounce returns
// then, or when ctx is cancelled.
func Debounce(ctx context.Context, changes <-chan Change, wait time.Duration, flush func([]Change)) {
	pending := make(map[string]ChangeType)
	timer := time.NewTimer(wait)
	timer.Stop()
	defer timer.Stop()

	emit := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]Change, 0, len(pending))
		for path, typ := range pending {
			batch = append(batch, Change{Type: typ, Path: path})
		}
		sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
		clear(pending)
		flush(batch)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				emit()
				return
			}
			if prev, seen := pending[change.Path]; seen && prev == ChangeCreated && change.Type == ChangeUpdated {
				change.Type = ChangeCreated
			}
			pending[change.Path] = change.Type
			timer.Reset(wait)
		case <-timer.C:
			emit()
		}
	}
}
