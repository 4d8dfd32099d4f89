package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenon0777/payever-backend-assessment/internal/config"
	"github.com/zenon0777/payever-backend-assessment/internal/domain"
)

var (
	_ UserEventPublisher = (*KafkaPublisher)(nil)
	_ UserEventPublisher = (*RedisStreamPublisher)(nil)
)

func TestEncodeUserCreated(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	user := &domain.User{ID: "u-1", Email: "a@b.co", Name: "Ann", Job: "dev"}

	raw, err := encodeUserCreated(user, at)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "user_created", got["pattern"])
	assert.EqualValues(t, 1700000000000, got["timestamp"])

	data, ok := got["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "u-1", data["_id"])
	assert.Equal(t, "a@b.co", data["email"])
}

func TestKafkaPublisher_NewMessage(t *testing.T) {
	kp := &KafkaPublisher{topic: "main_queue"}
	user := &domain.User{ID: "u-9", Email: "x@y.z"}

	msg, err := kp.newMessage(user, time.Now())
	require.NoError(t, err)

	require.NotNil(t, msg.TopicPartition.Topic)
	assert.Equal(t, "main_queue", *msg.TopicPartition.Topic)
	assert.Equal(t, []byte("u-9"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "user_created", string(msg.Headers[0].Value))
	assert.Contains(t, string(msg.Value), `"pattern":"user_created"`)
}

func TestRedisStreamPublisher_PublishUserCreated(t *testing.T) {
	mr := miniredis.RunT(t)
	p, err := NewRedisStreamPublisher(mr.Addr(), "main_queue")
	require.NoError(t, err)
	defer p.Close()

	user := &domain.User{ID: "u-2", Email: "c@d.co"}
	require.NoError(t, p.PublishUserCreated(context.Background(), user))

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	entries, err := rdb.XRange(context.Background(), "main_queue", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "user_created", entries[0].Values["event"])
	assert.Equal(t, "u-2", entries[0].Values["key"])
	assert.Contains(t, entries[0].Values["data"], `"_id":"u-2"`)
}

func TestRedisStreamPublisher_ConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStreamPublisher(addr, "main_queue")
	assert.Error(t, err)
}

func TestNewPublisher_UnknownDriver(t *testing.T) {
	_, err := NewPublisher(config.MQConfig{Driver: "nats"})
	assert.ErrorContains(t, err, "unsupported mq driver")
}

func TestNewPublisher_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	p, err := NewPublisher(config.MQConfig{Driver: "redis", URI: mr.Addr(), Queue: "events"})
	require.NoError(t, err)
	defer p.Close()

	_, ok := p.(*RedisStreamPublisher)
	assert.True(t, ok)
}
