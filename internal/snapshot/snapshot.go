// Package snapshot keeps the latest public state of every live room so
// other processes can list rooms without talking to the table actors.
package snapshot

import (
	"context"
	"sort"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const defaultKey = "pokerverse:rooms"

// Store implements table.SnapshotSink plus listing.
type Store interface {
	Save(ctx context.Context, roomID string, data []byte) error
	Remove(ctx context.Context, roomID string) error
	// List returns the encoded snapshots keyed by room ID.
	List(ctx context.Context) (map[string][]byte, error)
	Close() error
}

type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, roomID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[roomID] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	return nil
}

func (m *MemoryStore) List(_ context.Context) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.rooms))
	for id, data := range m.rooms {
		out[id] = data
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

// RedisStore keeps snapshots as fields of one redis hash.
type RedisStore struct {
	rdclient *redis.Client
	key      string
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{rdclient: rdclient, key: defaultKey}
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return errors.Wrap(r.rdclient.Ping(ctx).Err(), "ping redis")
}

func (r *RedisStore) Save(ctx context.Context, roomID string, data []byte) error {
	return errors.Wrapf(r.rdclient.HSet(ctx, r.key, roomID, data).Err(), "save snapshot of %s", roomID)
}

func (r *RedisStore) Remove(ctx context.Context, roomID string) error {
	return errors.Wrapf(r.rdclient.HDel(ctx, r.key, roomID).Err(), "remove snapshot of %s", roomID)
}

func (r *RedisStore) List(ctx context.Context) (map[string][]byte, error) {
	fields, err := r.rdclient.HGetAll(ctx, r.key).Result()
	if err == redis.Nil {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "list snapshots")
	}
	out := make(map[string][]byte, len(fields))
	for id, data := range fields {
		out[id] = []byte(data)
	}
	return out, nil
}

func (r *RedisStore) Close() error {
	return r.rdclient.Close()
}

// sortedIDs returns the keys of rooms in order.
func sortedIDs(rooms map[string][]byte) []string {
	ids := make([]string, 0, len(rooms))
	for id := range rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
