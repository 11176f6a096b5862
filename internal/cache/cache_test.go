package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryHook answers GET, SET and DEL from a map instead of a server.
type memoryHook struct {
	data map[string]string
}

func (h *memoryHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *memoryHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		args := cmd.Args()
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := h.data[args[1].(string)]
			if !ok {
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			key := args[1].(string)
			switch v := args[2].(type) {
			case []byte:
				h.data[key] = string(v)
			case string:
				h.data[key] = v
			}
			c.SetVal("OK")
		case *redis.IntCmd:
			var n int64
			for _, a := range args[1:] {
				if _, ok := h.data[a.(string)]; ok {
					delete(h.data, a.(string))
					n++
				}
			}
			c.SetVal(n)
		}
		return nil
	}
}

func (h *memoryHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func newMemoryRedis(t *testing.T) (*Redis, *memoryHook) {
	t.Helper()
	hook := &memoryHook{data: map[string]string{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(hook)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), hook
}

type category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestRedisJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, hook := newMemoryRedis(t)

	var got []category
	hit, err := r.GetJSON(ctx, CategoriesKey, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	want := []category{{ID: 1, Name: "Programming"}, {ID: 2, Name: "Design"}}
	require.NoError(t, r.SetJSON(ctx, CategoriesKey, want, 5*time.Minute))
	assert.JSONEq(t, `[{"id":1,"name":"Programming"},{"id":2,"name":"Design"}]`, hook.data[CategoriesKey])

	hit, err = r.GetJSON(ctx, CategoriesKey, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, got)

	require.NoError(t, r.Delete(ctx, CategoriesKey))
	hit, err = r.GetJSON(ctx, CategoriesKey, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCorruptEntry(t *testing.T) {
	r, hook := newMemoryRedis(t)
	hook.data[CategoriesKey] = "{not json"

	var got []category
	hit, err := r.GetJSON(context.Background(), CategoriesKey, &got)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", 1, time.Minute))
	hit, err := c.GetJSON(ctx, "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Delete(ctx, "k"))
}
