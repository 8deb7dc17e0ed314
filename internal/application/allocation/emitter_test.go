package allocation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisEmitter_PublishesMatchEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, "preorder-matches")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	emitter := &RedisEmitter{Rdb: rdb, Channel: "preorder-matches"}
	ev := MatchEvent{
		PreorderID:      uuid.New(),
		HarvestID:       uuid.New(),
		GrantedWeightKg: decimal.RequireFromString("2.5"),
	}
	require.NoError(t, emitter.MatchFound(ctx, ev))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got MatchEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, ev.PreorderID, got.PreorderID)
	assert.Equal(t, ev.HarvestID, got.HarvestID)
	assert.True(t, got.GrantedWeightKg.Equal(ev.GrantedWeightKg))
}

func TestLogEmitter_NeverFails(t *testing.T) {
	emitter := &LogEmitter{}
	err := emitter.MatchFound(context.Background(), MatchEvent{
		PreorderID:      uuid.New(),
		HarvestID:       uuid.New(),
		GrantedWeightKg: decimal.NewFromInt(1),
	})
	assert.NoError(t, err)
}
