package db

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"mentor-assign-server-go/models"
)

const (
	latestRunKey    = "run:latest" // String: JSON of the latest assignment summary
	runsKey         = "runs"       // Set: all cached run IDs
	runInfoPrefix   = "run:"       // Hash prefix: run:{id} -> headline figures of a run
	runMentorPrefix = "run:"       // Set prefix: run:{id}:mentor:{faculty_id} -> roll numbers

	// DefaultRunTTL is how long per-run keys are kept. The latest run never expires.
	DefaultRunTTL = 7 * 24 * time.Hour
)

// RedisService mirrors assignment runs into Redis so the dashboard can read them
// without touching the CSV files.
type RedisService struct {
	Client *redis.Client
	RunTTL time.Duration
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{
		Client: client,
		RunTTL: DefaultRunTTL,
	}
}

// Helper to generate run info key
func getRunInfoKey(runID string) string {
	return runInfoPrefix + runID
}

// Helper to generate the per-mentor roll number set key
func getRunMentorKey(runID, facultyID string) string {
	return runMentorPrefix + runID + ":mentor:" + facultyID
}

// SaveRun stores the summary as the latest run, plus a hash of headline figures and
// a set of roll numbers per mentor, in one pipeline.
func (s *RedisService) SaveRun(ctx context.Context, summary models.AssignmentSummary) error {
	if summary.RunID == "" {
		return errors.New("run ID cannot be empty")
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return errors.Wrap(err, "encode run summary")
	}

	infoKey := getRunInfoKey(summary.RunID)
	pipe := s.Client.Pipeline()

	pipe.Set(ctx, latestRunKey, payload, 0)
	pipe.SAdd(ctx, runsKey, summary.RunID)
	pipe.HMSet(ctx, infoKey, map[string]interface{}{
		"id":                summary.RunID,
		"total_students":    summary.TotalStudents,
		"assigned_students": summary.AssignedStudents,
		"assignments":       len(summary.Assignments),
		"created_at":        summary.CreatedAt.UTC().Format(time.RFC3339),
	})
	pipe.Expire(ctx, infoKey, s.RunTTL)

	for _, a := range summary.Assignments {
		if len(a.StudentRollNumbers) == 0 {
			continue
		}
		members := make([]interface{}, len(a.StudentRollNumbers))
		for i, r := range a.StudentRollNumbers {
			members[i] = r
		}
		mentorKey := getRunMentorKey(summary.RunID, a.MentorID)
		pipe.SAdd(ctx, mentorKey, members...)
		pipe.Expire(ctx, mentorKey, s.RunTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "cache run %s", summary.RunID)
	}
	return nil
}

// LatestRun returns the most recently cached run, or nil when nothing is cached.
func (s *RedisService) LatestRun(ctx context.Context) (*models.AssignmentSummary, error) {
	payload, err := s.Client.Get(ctx, latestRunKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not found
		}
		return nil, errors.Wrap(err, "get latest run")
	}

	var summary models.AssignmentSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, errors.Wrap(err, "decode latest run")
	}
	return &summary, nil
}

// ClearLatest forgets the latest run. Per-run keys are left to expire.
func (s *RedisService) ClearLatest(ctx context.Context) error {
	if err := s.Client.Del(ctx, latestRunKey).Err(); err != nil {
		return errors.Wrap(err, "clear latest run")
	}
	return nil
}

// RunIDs lists every cached run ID, sorted.
func (s *RedisService) RunIDs(ctx context.Context) ([]string, error) {
	ids, err := s.Client.SMembers(ctx, runsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, errors.Wrap(err, "list runs")
	}
	sort.Strings(ids)
	return ids, nil
}

// MentorStudents returns the roll numbers a mentor received in a run.
// found is false when the run is unknown or has expired.
func (s *RedisService) MentorStudents(ctx context.Context, runID, facultyID string) ([]int, bool, error) {
	exists, err := s.Client.Exists(ctx, getRunInfoKey(runID)).Result()
	if err != nil {
		return nil, false, errors.Wrapf(err, "check run %s", runID)
	}
	if exists == 0 {
		return nil, false, nil
	}

	members, err := s.Client.SMembers(ctx, getRunMentorKey(runID, facultyID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, false, errors.Wrapf(err, "get students of mentor %s in run %s", facultyID, runID)
	}

	rolls := make([]int, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue // Skip anything that is not a roll number
		}
		rolls = append(rolls, n)
	}
	sort.Ints(rolls)
	return rolls, true, nil
}

// NopRunCache is used when Redis is disabled.
type NopRunCache struct{}

func (NopRunCache) SaveRun(context.Context, models.AssignmentSummary) error {
	return nil
}

func (NopRunCache) LatestRun(context.Context) (*models.AssignmentSummary, error) {
	return nil, nil
}

func (NopRunCache) ClearLatest(context.Context) error {
	return nil
}

func (NopRunCache) RunIDs(context.Context) ([]string, error) {
	return []string{}, nil
}

func (NopRunCache) MentorStudents(context.Context, string, string) ([]int, bool, error) {
	return nil, false, nil
}

// --- Utility ---

// InitializeRedisClient creates a client and pings the server.
func InitializeRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Ping Redis to check connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "could not connect to redis at %s", addr)
	}
	return rdb, nil
}
