package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/exemplar/internal/exchange"
	"github.com/roach88/exemplar/internal/ir"
	"github.com/roach88/exemplar/internal/recorder"
)

// Sink returns a recorder.Sink that persists accepted examples.
// Each session row is written before its first example.
func (s *Store) Sink(ctx context.Context, target string) recorder.Sink {
	var mu sync.Mutex
	written := make(map[string]bool)

	return recorder.SinkFunc(func(rec ir.InvocationRecord, dedupKey string) error {
		mu.Lock()
		defer mu.Unlock()

		if !written[rec.SessionID] {
			if err := s.WriteSession(ctx, Session{ID: rec.SessionID, Target: target}); err != nil {
				return err
			}
			written[rec.SessionID] = true
		}

		// Field errors are already reported when the recorder serializes;
		// the degraded values are what gets stored.
		doc, _ := exchange.Serialize([]ir.InvocationRecord{rec})
		if len(doc) != 1 {
			return fmt.Errorf("persist example seq=%d: serialization produced %d examples", rec.Seq, len(doc))
		}
		_, err := s.WriteExample(ctx, doc[0], rec.SessionID, dedupKey)
		return err
	})
}
