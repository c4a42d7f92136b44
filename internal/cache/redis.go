package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emrgen/noteforest/internal/compress"
	"github.com/emrgen/noteforest/internal/model"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	defaultSnapshotTTL = time.Hour
)

func snapshotKey(scope Scope) string {
	return "snapshot:" + scope.Key()
}

func snapshotIndexKey(userID string) string {
	return "snapshot:index:" + userID
}

var _ SnapshotStore = (*RedisSnapshotStore)(nil)

// RedisSnapshotStore keeps the compressed json of every scope snapshot in
// redis. The per user index set lets Invalidate drop all scopes of a user.
type RedisSnapshotStore struct {
	client  *redis.Client
	encoder compress.Compress
	ttl     time.Duration
}

func NewRedisSnapshotStore(client *redis.Client, encoder compress.Compress, ttl time.Duration) *RedisSnapshotStore {
	if encoder == nil {
		encoder = compress.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}

	return &RedisSnapshotStore{client: client, encoder: encoder, ttl: ttl}
}

func (r *RedisSnapshotStore) Save(ctx context.Context, scope Scope, docs []*model.Document) error {
	if docs == nil {
		docs = make([]*model.Document, 0)
	}

	marshal, err := json.Marshal(docs)
	if err != nil {
		return err
	}

	data, err := r.encoder.Encode(marshal)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if err := p.Set(ctx, snapshotKey(scope), data, r.ttl).Err(); err != nil {
			return err
		}

		if err := p.SAdd(ctx, snapshotIndexKey(scope.UserID), snapshotKey(scope)).Err(); err != nil {
			return err
		}

		return p.Expire(ctx, snapshotIndexKey(scope.UserID), r.ttl).Err()
	})

	return err
}

func (r *RedisSnapshotStore) Load(ctx context.Context, scope Scope) ([]*model.Document, bool, error) {
	res := r.client.Get(ctx, snapshotKey(scope))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, false, nil
		}
		return nil, false, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, false, err
	}

	data, err := r.encoder.Decode(buf)
	if err != nil {
		logrus.Warnf("dropping undecodable snapshot %s: %v", scope.Key(), err)
		return nil, false, r.client.Del(ctx, snapshotKey(scope)).Err()
	}

	docs := make([]*model.Document, 0)
	if err = json.Unmarshal(data, &docs); err != nil {
		return nil, false, err
	}

	return docs, true, nil
}

func (r *RedisSnapshotStore) Invalidate(ctx context.Context, userID string) error {
	keys := r.client.SMembers(ctx, snapshotIndexKey(userID))
	if keys.Err() != nil {
		return keys.Err()
	}

	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, key := range keys.Val() {
			if err := p.Del(ctx, key).Err(); err != nil {
				return err
			}
		}

		return p.Del(ctx, snapshotIndexKey(userID)).Err()
	})

	return err
}
