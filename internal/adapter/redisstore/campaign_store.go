package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"rtb-engine/internal/core/domain"
	"rtb-engine/internal/core/port"
)

// Campaign records live in one hash per campaign under campaign:{id}.
// The static configuration is a JSON blob in the data field; the fields
// the ledger mutates or reads atomically are kept as separate integer
// hash fields so the store can HINCRBY them.
const keyPrefix = "campaign:"

const (
	fieldData         = "data"
	fieldStatus       = "status"
	fieldPauseReason  = "pause_reason"
	fieldCurrentSpend = "current_spend"
	fieldTodaySpend   = "today_spend"
	fieldTotalBudget  = "total_budget"
	fieldDailyBudget  = "daily_budget"
)

// addSpendScript is the store's one strong primitive: an atomic
// add-and-return over both spend counters. Redis runs a script as a
// single atomic unit, so the two increments and the read-back cannot
// interleave with any other client. There is deliberately no budget
// comparison here; bounding spend is the ledger's job.
var addSpendScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HINCRBY', KEYS[1], 'current_spend', ARGV[1])
redis.call('HINCRBY', KEYS[1], 'today_spend', ARGV[1])
return redis.call('HMGET', KEYS[1], 'current_spend', 'today_spend', 'total_budget', 'daily_budget')
`)

// CampaignStore implements port.CampaignStore on a Redis-compatible
// key-value store.
type CampaignStore struct {
	client *redis.Client
}

// NewCampaignStore returns a store backed by the given client.
func NewCampaignStore(client *redis.Client) *CampaignStore {
	return &CampaignStore{client: client}
}

func campaignKey(id string) string {
	return keyPrefix + id
}

// Get returns one campaign with the authoritative status and counters
// overlaid onto the stored configuration.
func (s *CampaignStore) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	fields, err := s.client.HGetAll(ctx, campaignKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get campaign %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, port.ErrCampaignNotFound
	}
	return campaignFromHash(fields)
}

// Put writes the full campaign record. Spend counters are taken from
// the struct, so Put on an existing campaign also resets its counters;
// management callers preserve them by reading first.
func (s *CampaignStore) Put(ctx context.Context, c *domain.Campaign) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal campaign %s: %w", c.ID, err)
	}
	err = s.client.HSet(ctx, campaignKey(c.ID),
		fieldData, string(data),
		fieldStatus, string(c.Status),
		fieldCurrentSpend, c.CurrentSpend,
		fieldTodaySpend, c.TodaySpend,
		fieldTotalBudget, c.TotalBudget,
		fieldDailyBudget, c.DailyBudget,
	).Err()
	if err != nil {
		return fmt.Errorf("put campaign %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes the campaign record.
func (s *CampaignStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, campaignKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete campaign %s: %w", id, err)
	}
	if n == 0 {
		return port.ErrCampaignNotFound
	}
	return nil
}

// ScanAll walks every campaign key and assembles the records. Malformed
// records are skipped rather than failing the whole scan, so one bad
// write cannot take down cache refreshes.
func (s *CampaignStore) ScanAll(ctx context.Context) ([]domain.Campaign, error) {
	var campaigns []domain.Campaign
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		fields, err := s.client.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return nil, fmt.Errorf("scan campaigns: %w", err)
		}
		if len(fields) == 0 {
			continue // deleted between SCAN and HGETALL
		}
		c, err := campaignFromHash(fields)
		if err != nil {
			continue
		}
		campaigns = append(campaigns, *c)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan campaigns: %w", err)
	}
	return campaigns, nil
}

// ReadBudget returns a plain, non-atomic snapshot of the budget fields.
func (s *CampaignStore) ReadBudget(ctx context.Context, id string) (*port.BudgetFields, error) {
	vals, err := s.client.HMGet(ctx, campaignKey(id),
		fieldCurrentSpend, fieldTodaySpend, fieldTotalBudget, fieldDailyBudget).Result()
	if err != nil {
		return nil, fmt.Errorf("read budget %s: %w", id, err)
	}
	return budgetFromValues(vals)
}

// AtomicAddSpend adds delta to both spend counters and returns the
// post-add budget fields from the same atomic script execution.
func (s *CampaignStore) AtomicAddSpend(ctx context.Context, id string, delta int64) (*port.BudgetFields, error) {
	res, err := addSpendScript.Run(ctx, s.client, []string{campaignKey(id)}, delta).Result()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("add spend %s: %w", id, err)
	}
	vals, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("add spend %s: unexpected reply %T", id, res)
	}
	return budgetFromValues(vals)
}

// SetStatus updates lifecycle status and pause reason without touching
// the spend counters. Repeating the same transition is a no-op.
func (s *CampaignStore) SetStatus(ctx context.Context, id string, status domain.CampaignStatus, reason string) error {
	key := campaignKey(id)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("set status %s: %w", id, err)
	}
	if exists == 0 {
		return port.ErrCampaignNotFound
	}
	err = s.client.HSet(ctx, key, fieldStatus, string(status), fieldPauseReason, reason).Err()
	if err != nil {
		return fmt.Errorf("set status %s: %w", id, err)
	}
	return nil
}

// ResetTodaySpend zeroes the daily counter on all campaigns and
// reactivates the ones that were paused for daily depletion. A total
// depletion pause keeps its status and reason.
func (s *CampaignStore) ResetTodaySpend(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := s.client.HSet(ctx, key, fieldTodaySpend, 0).Err(); err != nil {
			return count, fmt.Errorf("reset today spend: %w", err)
		}
		vals, err := s.client.HMGet(ctx, key, fieldStatus, fieldPauseReason).Result()
		if err != nil {
			return count, fmt.Errorf("reset today spend: %w", err)
		}
		status, _ := vals[0].(string)
		reason, _ := vals[1].(string)
		if status == string(domain.StatusBudgetDepleted) && reason == domain.PauseReasonDailyBudget {
			err = s.client.HSet(ctx, key,
				fieldStatus, string(domain.StatusActive),
				fieldPauseReason, "",
			).Err()
			if err != nil {
				return count, fmt.Errorf("reset today spend: %w", err)
			}
		}
		count++
	}
	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("reset today spend: %w", err)
	}
	return count, nil
}

// campaignFromHash rebuilds a Campaign from its hash representation,
// preferring the authoritative hash fields over the JSON snapshot.
func campaignFromHash(fields map[string]string) (*domain.Campaign, error) {
	raw, ok := fields[fieldData]
	if !ok {
		return nil, errors.New("campaign record missing data field")
	}
	var c domain.Campaign
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("unmarshal campaign: %w", err)
	}
	if v, ok := fields[fieldStatus]; ok && v != "" {
		c.Status = domain.CampaignStatus(v)
	}
	c.CurrentSpend = parseMicros(fields[fieldCurrentSpend])
	c.TodaySpend = parseMicros(fields[fieldTodaySpend])
	c.TotalBudget = parseMicros(fields[fieldTotalBudget])
	c.DailyBudget = parseMicros(fields[fieldDailyBudget])
	return &c, nil
}

func budgetFromValues(vals []interface{}) (*port.BudgetFields, error) {
	if len(vals) != 4 {
		return nil, fmt.Errorf("unexpected budget reply length %d", len(vals))
	}
	// HMGET on a missing key yields all nils.
	allNil := true
	for _, v := range vals {
		if v != nil {
			allNil = false
			break
		}
	}
	if allNil {
		return nil, port.ErrCampaignNotFound
	}
	return &port.BudgetFields{
		CurrentSpend: microsFromReply(vals[0]),
		TodaySpend:   microsFromReply(vals[1]),
		TotalBudget:  microsFromReply(vals[2]),
		DailyBudget:  microsFromReply(vals[3]),
	}, nil
}

func microsFromReply(v interface{}) int64 {
	switch t := v.(type) {
	case string:
		return parseMicros(t)
	case int64:
		return t
	default:
		return 0
	}
}

func parseMicros(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Ping verifies connectivity with a short deadline; used at startup.
func (s *CampaignStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}
