package workers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compvault/compvault/internal/adapter"
	"github.com/compvault/compvault/internal/bus"
	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/store"
	"github.com/compvault/compvault/models"
)

// memQueue is an in-memory named deque with ids for acknowledgement.
type memEntry struct {
	id      int64
	payload []byte
}

type memQueue struct {
	mu     sync.Mutex
	queues map[string][]memEntry
	nextID int64
	lenErr error
}

func newMemQueue() *memQueue {
	return &memQueue{queues: make(map[string][]memEntry), nextID: 1}
}

func (q *memQueue) PushBack(_ context.Context, queue string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queues[queue] = append(q.queues[queue], memEntry{id: q.nextID, payload: payload})
	q.nextID++
	return nil
}

func (q *memQueue) PeekFront(_ context.Context, queue string) (int64, []byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries := q.queues[queue]
	if len(entries) == 0 {
		return 0, nil, store.ErrQueueEmpty
	}
	return entries[0].id, entries[0].payload, nil
}

func (q *memQueue) Acknowledge(_ context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for name, entries := range q.queues {
		for i, e := range entries {
			if e.id == id {
				q.queues[name] = append(entries[:i], entries[i+1:]...)
				return nil
			}
		}
	}
	return store.ErrQueueEmpty
}

func (q *memQueue) List(_ context.Context, queue string) ([][]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([][]byte, 0, len(q.queues[queue]))
	for _, e := range q.queues[queue] {
		out = append(out, e.payload)
	}
	return out, nil
}

func (q *memQueue) Len(_ context.Context, queue string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lenErr != nil {
		return 0, q.lenErr
	}
	return len(q.queues[queue]), nil
}

// flushRemote scripts EmergencyFlush outcomes per call.
type flushRemote struct {
	mu    sync.Mutex
	errs  []error
	calls int

	// onFlush runs inside EmergencyFlush, before the scripted outcome.
	onFlush func()
}

func (r *flushRemote) SetToken(_ string) {}
func (r *flushRemote) Token() string     { return "" }

func (r *flushRemote) Upsert(_ context.Context, _ models.UpsertRequest) (models.UpsertResponse, error) {
	return models.UpsertResponse{}, nil
}

func (r *flushRemote) Update(_ context.Context, _ models.UpdateRequest) (models.UpdateResponse, error) {
	return models.UpdateResponse{}, nil
}

func (r *flushRemote) PendingRecords(_ context.Context) (models.PendingRecordsResponse, error) {
	return models.PendingRecordsResponse{}, nil
}

func (r *flushRemote) EmergencyFlush(_ context.Context, _ models.EmergencyFlushRequest) (models.EmergencyFlushResponse, error) {
	r.mu.Lock()
	call := r.calls
	r.calls++
	onFlush := r.onFlush
	r.mu.Unlock()

	if onFlush != nil {
		onFlush()
	}
	if call < len(r.errs) {
		return models.EmergencyFlushResponse{}, r.errs[call]
	}
	return models.EmergencyFlushResponse{Applied: 1}, nil
}

func (r *flushRemote) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func queuedPayload(t *testing.T) []byte {
	t.Helper()

	payload, err := json.Marshal(models.QueuedOperation{
		Kind: models.OperationCreate,
		Upsert: &models.UpsertRequest{
			Type:     models.RecordTypeSalary,
			Payload:  models.EncryptedPayload{Data: []byte("x"), IV: []byte("123456789012"), Salt: []byte("1234567890123456")},
			Currency: "USD",
		},
	})
	require.NoError(t, err)
	return payload
}

func newFlushAgentForTest(queue store.FlushQueueRepository, remote adapter.ServerAdapter, b *bus.Bus) *flushAgent {
	cfg := config.AgentFlush{QueueName: "test-queue", PollInterval: 5 * time.Millisecond}
	return NewFlushAgent(context.Background(), queue, remote, b, cfg, logger.Nop()).(*flushAgent)
}

func TestFlushAgent_DrainsQueueInOrder(t *testing.T) {
	queue := newMemQueue()
	remote := &flushRemote{}
	agent := newFlushAgentForTest(queue, remote, nil)

	require.NoError(t, queue.PushBack(context.Background(), "test-queue", queuedPayload(t)))
	require.NoError(t, queue.PushBack(context.Background(), "test-queue", queuedPayload(t)))

	agent.drainOnce()

	assert.Equal(t, 2, remote.callCount())
	n, err := queue.Len(context.Background(), "test-queue")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFlushAgent_RecoverableFailureKeepsEntryAtHead(t *testing.T) {
	queue := newMemQueue()
	remote := &flushRemote{errs: []error{adapter.ErrServerUnavailable}}
	agent := newFlushAgentForTest(queue, remote, nil)

	require.NoError(t, queue.PushBack(context.Background(), "test-queue", queuedPayload(t)))
	require.NoError(t, queue.PushBack(context.Background(), "test-queue", queuedPayload(t)))

	agent.drainOnce()

	// the failed head was never acknowledged and the drain stopped
	assert.Equal(t, 1, remote.callCount())
	n, err := queue.Len(context.Background(), "test-queue")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// next tick retries the same head first and finishes the queue
	agent.drainOnce()
	assert.Equal(t, 3, remote.callCount())
	n, err = queue.Len(context.Background(), "test-queue")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFlushAgent_PermanentRejectionDropsEntry(t *testing.T) {
	queue := newMemQueue()
	remote := &flushRemote{errs: []error{adapter.ErrBadRequest}}

	log := logger.Nop()
	b := bus.New(log)
	var events []models.Event
	b.Subscribe(func(e models.Event) { events = append(events, e) })

	agent := newFlushAgentForTest(queue, remote, b)

	require.NoError(t, queue.PushBack(context.Background(), "test-queue", queuedPayload(t)))
	require.NoError(t, queue.PushBack(context.Background(), "test-queue", queuedPayload(t)))

	agent.drainOnce()

	// rejected entry dropped, drain continued to the next one
	assert.Equal(t, 2, remote.callCount())
	n, err := queue.Len(context.Background(), "test-queue")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NotEmpty(t, events)
	failed, ok := events[0].(models.SyncFailed)
	require.True(t, ok)
	assert.True(t, failed.Permanent)
}

func TestFlushAgent_UndecodableEntryDropped(t *testing.T) {
	queue := newMemQueue()
	remote := &flushRemote{}
	agent := newFlushAgentForTest(queue, remote, nil)

	require.NoError(t, queue.PushBack(context.Background(), "test-queue", []byte("{not json")))
	require.NoError(t, queue.PushBack(context.Background(), "test-queue", queuedPayload(t)))

	agent.drainOnce()

	assert.Equal(t, 1, remote.callCount())
	n, err := queue.Len(context.Background(), "test-queue")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFlushAgent_DeliveryPublishesSyncSucceeded(t *testing.T) {
	queue := newMemQueue()
	remote := &flushRemote{}

	log := logger.Nop()
	b := bus.New(log)
	var events []models.Event
	b.Subscribe(func(e models.Event) { events = append(events, e) })

	agent := newFlushAgentForTest(queue, remote, b)

	payload, err := json.Marshal(models.QueuedOperation{
		Kind: models.OperationCreate,
		Upsert: &models.UpsertRequest{
			Type:     models.RecordTypeSalary,
			Payload:  models.EncryptedPayload{Data: []byte("x"), IV: []byte("123456789012"), Salt: []byte("1234567890123456")},
			Currency: "USD",
			LocalID:  "local-1",
		},
	})
	require.NoError(t, err)
	require.NoError(t, queue.PushBack(context.Background(), "test-queue", payload))

	agent.drainOnce()

	require.Len(t, events, 1)
	succeeded, ok := events[0].(models.SyncSucceeded)
	require.True(t, ok)
	assert.Equal(t, "local-1", succeeded.RecordLocalID)
}

func TestFlushAgent_EntryStaysQueuedUntilAcknowledged(t *testing.T) {
	queue := newMemQueue()
	remote := &flushRemote{}

	// observed mid-delivery: the entry must still be on the durable
	// queue, so a teardown between peek and acknowledge loses nothing
	var midDelivery int
	remote.onFlush = func() {
		n, err := queue.Len(context.Background(), "test-queue")
		require.NoError(t, err)
		midDelivery = n
	}

	agent := newFlushAgentForTest(queue, remote, nil)
	require.NoError(t, queue.PushBack(context.Background(), "test-queue", queuedPayload(t)))

	agent.drainOnce()

	assert.Equal(t, 1, midDelivery)
	n, err := queue.Len(context.Background(), "test-queue")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFlushAgent_Run_PublishesRegistration(t *testing.T) {
	queue := newMemQueue()

	log := logger.Nop()
	b := bus.New(log)
	var mu sync.Mutex
	var events []models.Event
	b.Subscribe(func(e models.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.AgentFlush{QueueName: "test-queue", PollInterval: time.Hour}
	agent := NewFlushAgent(ctx, queue, &flushRemote{}, b, cfg, log)
	agent.Run()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventFlushRegistered, events[0].Kind())
}

func TestFlushAgent_Run_UnreachableQueueFailsRegistration(t *testing.T) {
	queue := newMemQueue()
	queue.lenErr = assert.AnError

	log := logger.Nop()
	b := bus.New(log)
	var events []models.Event
	b.Subscribe(func(e models.Event) { events = append(events, e) })

	cfg := config.AgentFlush{QueueName: "test-queue", PollInterval: time.Hour}
	agent := NewFlushAgent(context.Background(), queue, &flushRemote{}, b, cfg, log)
	agent.Run()

	require.Len(t, events, 1)
	assert.Equal(t, models.EventFlushRegisterFailed, events[0].Kind())
}
