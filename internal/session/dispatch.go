package session

import (
	"context"
	"errors"
	"fmt"
)

type syncState struct {
	callback ObjectID
	done     bool
}

// roundtrip blocks until the compositor has processed every request sent so
// far, routing all events that arrive in the meantime.
func (s *Session) roundtrip() error {
	cb, err := s.t.Sync()
	if err != nil {
		return transportErr("sync", err)
	}
	s.sync = syncState{callback: cb}

	for !s.sync.done {
		events, err := s.t.ReadEvents()
		if err != nil {
			// Closure before the callback fires is never orderly here.
			return transportErr("roundtrip", err)
		}
		for _, ev := range events {
			if err := s.dispatch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) handleCallbackDone(e CallbackDone) {
	if e.Object == s.sync.callback {
		s.sync.done = true
	}
}

// Run is the dispatch loop. It blocks on the transport, routes every queued
// event, and repeats. It returns nil when the transport closes in an orderly
// way or after Stop; any transport failure is returned as a TransportError.
// Once Run has returned an error the session must not be resumed and later
// calls fail with ErrSessionFailed.
//
// ctx is checked between batches; it cannot interrupt a blocked read.
func (s *Session) Run(ctx context.Context) error {
	if s.err != nil {
		return fmt.Errorf("%w: %v", ErrSessionFailed, s.err)
	}

	for !s.stopped {
		if err := ctx.Err(); err != nil {
			return err
		}

		events, err := s.t.ReadEvents()
		if err != nil {
			if errors.Is(err, ErrClosed) {
				log.Debug("transport closed, leaving dispatch loop")
				s.hungUp = true
				return nil
			}
			return s.fail(transportErr("read", err))
		}

		for _, ev := range events {
			if err := s.dispatch(ev); err != nil {
				return s.fail(err)
			}
		}
	}

	log.Debug("dispatch loop stopped")
	return nil
}

func (s *Session) fail(err error) error {
	s.err = err
	return err
}
