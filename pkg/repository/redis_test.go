package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errServed = errors.New("served in memory")

// memoryRedis answers the handful of commands the lock uses without a server.
type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
	seen []string
}

func (m *memoryRedis) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	args := cmd.Args()
	m.seen = append(m.seen, cmd.Name())
	switch cmd.Name() {
	case "set":
		key, val := fmt.Sprint(args[1]), fmt.Sprint(args[2])
		_, exists := m.data[key]
		if !exists {
			m.data[key] = val
		}
		cmd.(*redis.BoolCmd).SetVal(!exists)
	case "evalsha":
		key, token := fmt.Sprint(args[3]), fmt.Sprint(args[4])
		var deleted int64
		if m.data[key] == token {
			delete(m.data, key)
			deleted = 1
		}
		cmd.(*redis.Cmd).SetVal(deleted)
	case "get":
		cmd.(*redis.StringCmd).SetVal(m.data[fmt.Sprint(args[1])])
	case "del":
		delete(m.data, fmt.Sprint(args[1]))
		cmd.(*redis.IntCmd).SetVal(1)
	default:
		return ctx, fmt.Errorf("unexpected command %q", cmd.Name())
	}
	return ctx, errServed
}

func (m *memoryRedis) AfterProcess(_ context.Context, cmd redis.Cmder) error {
	if errors.Is(cmd.Err(), errServed) {
		cmd.SetErr(nil)
	}
	return nil
}

func (m *memoryRedis) BeforeProcessPipeline(ctx context.Context, _ []redis.Cmder) (context.Context, error) {
	return ctx, errors.New("pipelines are not supported")
}

func (m *memoryRedis) AfterProcessPipeline(context.Context, []redis.Cmder) error { return nil }

func (m *memoryRedis) value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memoryRedis) commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seen...)
}

func newLockTestRepository(t *testing.T) (*RedisRepository, *memoryRedis) {
	t.Helper()
	mem := &memoryRedis{data: make(map[string]string)}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(mem)
	t.Cleanup(func() { client.Close() })
	return &RedisRepository{client: client, config: &config.RedisConfig{LockTTL: time.Second}}, mem
}

func TestAcquireLockIsExclusive(t *testing.T) {
	repo, mem := newLockTestRepository(t)
	ctx := context.Background()

	release, err := repo.AcquireLock(ctx, "pay_1")
	require.NoError(t, err)

	_, err = repo.AcquireLock(ctx, "pay_1")
	assert.ErrorIs(t, err, ErrLockHeld)

	release()
	_, held := mem.value("lock:pay_1")
	assert.False(t, held)

	again, err := repo.AcquireLock(ctx, "pay_1")
	require.NoError(t, err)
	again()
}

func TestReleaseKeepsLockTakenOverByAnotherHolder(t *testing.T) {
	repo, mem := newLockTestRepository(t)
	ctx := context.Background()

	release, err := repo.AcquireLock(ctx, "pay_2")
	require.NoError(t, err)

	// The TTL lapsed and a second request now owns the key.
	mem.mu.Lock()
	mem.data["lock:pay_2"] = "other-holder"
	mem.mu.Unlock()

	release()
	v, held := mem.value("lock:pay_2")
	require.True(t, held)
	assert.Equal(t, "other-holder", v)

	// Release is a single compare-and-delete round trip.
	assert.Equal(t, []string{"set", "evalsha"}, mem.commands())
}
