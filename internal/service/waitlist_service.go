package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vibewear/api/internal/model"
)

const waitlistKey = "waitlist"

// WaitlistService keeps one entry per e-mail address in a Redis hash.
type WaitlistService struct {
	redis *redis.Client
	now   func() time.Time
}

func NewWaitlistService(redisClient *redis.Client) *WaitlistService {
	return &WaitlistService{redis: redisClient, now: time.Now}
}

type waitlistEntry struct {
	Email       string    `json:"email"`
	JoinedAt    time.Time `json:"joinedAt"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Join adds the address unless it is already on the list, in which case the
// original entry is returned with Existing set.
func (s *WaitlistService) Join(ctx context.Context, req *model.WaitlistRequest) (*model.WaitlistResponse, error) {
	email := NormalizeEmail(req.Email)
	now := s.now().UTC()

	entry := waitlistEntry{Email: email, JoinedAt: now, SubmittedAt: now}
	if req.Date != nil {
		entry.SubmittedAt = req.Date.UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	added, err := s.redis.HSetNX(ctx, waitlistKey, email, data).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to save waitlist entry: %w", err)
	}
	if added {
		return &model.WaitlistResponse{Email: email, JoinedAt: now}, nil
	}

	raw, err := s.redis.HGet(ctx, waitlistKey, email).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read waitlist entry: %w", err)
	}
	var existing waitlistEntry
	if err := json.Unmarshal(raw, &existing); err != nil {
		return nil, fmt.Errorf("failed to decode waitlist entry: %w", err)
	}
	return &model.WaitlistResponse{Email: email, JoinedAt: existing.JoinedAt, Existing: true}, nil
}

func (s *WaitlistService) Count(ctx context.Context) (int64, error) {
	return s.redis.HLen(ctx, waitlistKey).Result()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
