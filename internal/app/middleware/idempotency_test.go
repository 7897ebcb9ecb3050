package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdeal/internal/app/commands"
	"rentdeal/internal/domain/shared/fault"
)

type testCommand struct {
	key    string
	idemp  string
	fail   error
	result *testResult
}

type testResult struct {
	Value string `json:"value"`
}

func (c testCommand) Key() string            { return c.key }
func (c testCommand) IdempotencyKey() string { return c.idemp }
func (c testCommand) ResultPrototype() any   { return &testResult{} }

type mapStore struct {
	items map[string]IdempotencyRecord
}

func newMapStore() *mapStore {
	return &mapStore{items: make(map[string]IdempotencyRecord)}
}

func (s *mapStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *mapStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.items[rec.Key] = rec
	return nil
}

func busWithCounter(calls *int) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	bus.RegisterRaw("test", func(ctx context.Context, raw commands.Command) (any, error) {
		*calls++
		cmd := raw.(testCommand)
		if cmd.fail != nil {
			return nil, cmd.fail
		}
		return cmd.result, nil
	})
	return bus
}

func TestIdempotencyReplaysResult(t *testing.T) {
	var calls int
	store := newMapStore()
	bus := ChainCommands(busWithCounter(&calls), Idempotency(store, nil))
	cmd := testCommand{key: "test", idemp: "k1", result: &testResult{Value: "first"}}

	res, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "first", res.(*testResult).Value)
	assert.Equal(t, 1, calls)

	// second dispatch with the same key never reaches the handler
	cmd.result = &testResult{Value: "second"}
	res, err = bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "first", res.(*testResult).Value)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyEmptyKeyBypasses(t *testing.T) {
	var calls int
	bus := ChainCommands(busWithCounter(&calls), Idempotency(newMapStore(), nil))
	cmd := testCommand{key: "test", result: &testResult{Value: "x"}}

	for i := 0; i < 3; i++ {
		_, err := bus.Dispatch(context.Background(), cmd)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestIdempotencyReplaysTypedError(t *testing.T) {
	var calls int
	store := newMapStore()
	bus := ChainCommands(busWithCounter(&calls), Idempotency(store, nil))
	cmd := testCommand{key: "test", idemp: "k1", fail: fault.New(fault.KindInvalidTransition, "already terminal")}

	_, err := bus.Dispatch(context.Background(), cmd)
	require.Error(t, err)
	_, err = bus.Dispatch(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindInvalidTransition))
	assert.Equal(t, 1, calls)
}

func TestIdempotencyDoesNotCacheRetryableFailures(t *testing.T) {
	var calls int
	store := newMapStore()
	bus := ChainCommands(busWithCounter(&calls), Idempotency(store, nil))
	cmd := testCommand{key: "test", idemp: "k1", fail: fault.New(fault.KindUnavailable, "gateway down")}

	_, err := bus.Dispatch(context.Background(), cmd)
	require.Error(t, err)
	assert.Empty(t, store.items)

	// the outage clears and the same key succeeds
	cmd.fail = nil
	cmd.result = &testResult{Value: "recovered"}
	res, err := bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "recovered", res.(*testResult).Value)
	assert.Equal(t, 2, calls)
}
