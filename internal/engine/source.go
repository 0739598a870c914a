package engine

import "context"

// Source is the boundary to the source store for one entity type. Implemented
// by the store layer.
//
// NextChunk reads up to limit unsynced rows with IDs strictly greater than
// afterID, ascending by ID. Each call is an independent query: no cursor is
// held open, so a run can crash and the next run resumes from the remaining
// unsynced set. The afterID cursor guarantees a single run reads every
// backlog row exactly once even when some rows fail delivery and stay
// unsynced.
//
// MarkSynced flips the synced flag for the given IDs. It is invoked only for
// rows whose events were acknowledged, batch-by-batch; the flag is monotonic
// (false to true only) so no transactional isolation is needed against
// concurrent readers.
type Source[T any] interface {
	NextChunk(ctx context.Context, afterID string, limit int32) ([]T, error)
	MarkSynced(ctx context.Context, ids []string) error
}
