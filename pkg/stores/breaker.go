package stores

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"
	"github.com/theapemachine/ukg/pkg/errors"
)

/*
Breaker wraps a SnapshotStore in a circuit breaker. Five consecutive failures
open the circuit for thirty seconds; a missing key does not count as a failure.
*/
type Breaker struct {
	store SnapshotStore
	cb    *gobreaker.CircuitBreaker
}

/*
WithBreaker returns store guarded by a circuit breaker called name.
*/
func WithBreaker(store SnapshotStore, name string) *Breaker {
	return &Breaker{
		store: store,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, errors.ErrNotFound)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("snapshot store circuit changed state", "store", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (breaker *Breaker) Put(ctx context.Context, key string, data []byte) error {
	_, err := breaker.cb.Execute(func() (any, error) {
		return nil, breaker.store.Put(ctx, key, data)
	})

	return breaker.wrap(err)
}

func (breaker *Breaker) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := breaker.cb.Execute(func() (any, error) {
		return breaker.store.Get(ctx, key)
	})

	if err != nil {
		return nil, breaker.wrap(err)
	}

	return out.([]byte), nil
}

/*
State reports the current circuit state.
*/
func (breaker *Breaker) State() string {
	return breaker.cb.State().String()
}

/*
Close closes the wrapped store when it holds resources.
*/
func (breaker *Breaker) Close() error {
	if closer, ok := breaker.store.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

func (breaker *Breaker) wrap(err error) error {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return errors.ErrSnapshot.WithMessagef("snapshot store %s unavailable", breaker.cb.Name()).Wrap(err)
	}

	return err
}
