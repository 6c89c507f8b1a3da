// Package cleanup reclaims storage held by expired guest sessions.
// Guest expiry is enforced lazily on access; the sweeper only removes
// the leftover keys of sessions nobody will come back to.
package cleanup

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/localstore"
)

const scanBatch = 200

type Sweeper struct {
	rdb *redis.Client
	now func() time.Time
}

func NewSweeper(rdb *redis.Client) *Sweeper {
	return &Sweeper{rdb: rdb, now: time.Now}
}

// Start schedules the nightly sweep at 12:00 AM.
func (s *Sweeper) Start() *cron.Cron {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc("0 0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		n, err := s.Sweep(ctx)
		if err != nil {
			log.Printf("[warn] operation=guest_sweep error=%v", err)
			return
		}
		log.Printf("[info] operation=guest_sweep message=removed expired guest sessions count=%d", n)
	})
	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return c
	}

	log.Println("Cron scheduler started (guest sweep nightly at 12:00AM)")
	c.Start()
	return c
}

// Sweep scans for guest expiry markers, and for each expired one
// deletes every key in that session's scope. Returns the number of
// sessions removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	pattern := localstore.SessionPrefix("*") + localstore.KeyGuestExpiry

	removed := 0
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, err
		}

		for _, key := range keys {
			expired, err := s.expired(ctx, key)
			if err != nil {
				log.Printf("[warn] operation=guest_sweep key=%s error=%v", key, err)
				continue
			}
			if !expired {
				continue
			}
			if err := s.dropScope(ctx, strings.TrimSuffix(key, localstore.KeyGuestExpiry)); err != nil {
				log.Printf("[warn] operation=guest_sweep key=%s error=%v", key, err)
				continue
			}
			removed++
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (s *Sweeper) expired(ctx context.Context, key string) (bool, error) {
	raw, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Unparseable marker: treat the session as expired garbage.
		return true, nil
	}
	return s.now().After(time.UnixMilli(ms)), nil
}

// dropScope deletes every key under one session prefix.
func (s *Sweeper) dropScope(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
