package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ConcertsPubSub broadcasts concert state changes so other processes (and
// any future UI push channel) can drop derived state.
type ConcertsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewConcertsPubSub(rdb *redis.Client) *ConcertsPubSub {
	return &ConcertsPubSub{
		rdb:     rdb,
		channel: ChannelConcertsChanged(),
	}
}

type concertChangedMsg struct {
	Type      string `json:"type"`
	ConcertID string `json:"concert_id"`
	TsUnix    int64  `json:"ts_unix"`
}

func (p *ConcertsPubSub) PublishConcertChanged(ctx context.Context, concertID uuid.UUID) error {
	msg := concertChangedMsg{
		Type:      "concert_changed",
		ConcertID: concertID.String(),
		TsUnix:    time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *ConcertsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, concertID uuid.UUID)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg concertChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				continue
			}
			id, err := uuid.Parse(msg.ConcertID)
			if err != nil {
				continue
			}
			handler(ctx, id)
		}
	}
}
