package allocation

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MatchEvent is the outbound contract consumed by the notification/chat
// subsystem: exactly one event per preorder that received a nonzero grant
// during an allocation pass.
type MatchEvent struct {
	PreorderID      uuid.UUID       `json:"preorder_id"`
	HarvestID       uuid.UUID       `json:"harvest_id"`
	GrantedWeightKg decimal.Decimal `json:"granted_weight_kg"`
}

// Emitter publishes match events. Emission failures are the emitter's problem
// to report; the allocation pass itself never fails because of them.
type Emitter interface {
	MatchFound(ctx context.Context, ev MatchEvent) error
}

// RedisEmitter publishes match events as JSON on a Redis channel.
type RedisEmitter struct {
	Rdb     *redis.Client
	Channel string
}

func (e *RedisEmitter) MatchFound(ctx context.Context, ev MatchEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return e.Rdb.Publish(ctx, e.Channel, payload).Err()
}

// LogEmitter is the fallback when no Redis is configured (dev, tests run
// without a notification subsystem). Events still show up in the logs.
type LogEmitter struct{}

func (e *LogEmitter) MatchFound(ctx context.Context, ev MatchEvent) error {
	log.Info().
		Str("preorder_id", ev.PreorderID.String()).
		Str("harvest_id", ev.HarvestID.String()).
		Str("granted_weight_kg", ev.GrantedWeightKg.String()).
		Msg("Preorder matched")
	return nil
}
