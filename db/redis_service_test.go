package db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-assign-server-go/models"
)

func newTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := InitializeRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisService(client), mr
}

func testSummary() models.AssignmentSummary {
	created := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	return models.AssignmentSummary{
		RunID:            "run-1",
		TotalStudents:    5,
		TotalMentors:     2,
		AssignedStudents: 5,
		Assignments: []models.Assignment{
			{MentorID: "FAC001", StudentRollNumbers: []int{1, 2, 3}, BatchNumber: 1, CreatedAt: created},
			{MentorID: "FAC002", StudentRollNumbers: []int{4, 5}, BatchNumber: 2, CreatedAt: created},
		},
		UnassignedStudents:   []int{},
		AveragePerAssignment: 2.5,
		CreatedAt:            created,
	}
}

func TestRedisService_SaveAndLoadLatest(t *testing.T) {
	svc, mr := newTestRedis(t)
	ctx := context.Background()

	latest, err := svc.LatestRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	summary := testSummary()
	require.NoError(t, svc.SaveRun(ctx, summary))

	latest, err = svc.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, summary, *latest)

	assert.Equal(t, "5", mr.HGet("run:run-1", "total_students"))
	assert.Equal(t, "2", mr.HGet("run:run-1", "assignments"))
	assert.Equal(t, DefaultRunTTL, mr.TTL("run:run-1"))

	ids, err := svc.RunIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1"}, ids)
}

func TestRedisService_ClearLatest(t *testing.T) {
	svc, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, svc.ClearLatest(ctx))
	require.NoError(t, svc.SaveRun(ctx, testSummary()))
	require.NoError(t, svc.ClearLatest(ctx))

	latest, err := svc.LatestRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)
	assert.False(t, mr.Exists("run:latest"))

	rolls, found, err := svc.MentorStudents(ctx, "run-1", "FAC001")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotEmpty(t, rolls)
}

func TestRedisService_MentorStudents(t *testing.T) {
	svc, mr := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, svc.SaveRun(ctx, testSummary()))

	rolls, found, err := svc.MentorStudents(ctx, "run-1", "FAC002")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{4, 5}, rolls)

	rolls, found, err = svc.MentorStudents(ctx, "run-1", "FAC999")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, rolls)

	_, found, err = svc.MentorStudents(ctx, "missing", "FAC001")
	require.NoError(t, err)
	assert.False(t, found)

	mr.FastForward(DefaultRunTTL + time.Minute)
	_, found, err = svc.MentorStudents(ctx, "run-1", "FAC001")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisService_Errors(t *testing.T) {
	svc, mr := newTestRedis(t)
	ctx := context.Background()

	require.Error(t, svc.SaveRun(ctx, models.AssignmentSummary{}))

	mr.Close()
	_, err := svc.LatestRun(ctx)
	require.Error(t, err)
}

func TestInitializeRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := InitializeRedisClient(ctx, "127.0.0.1:1", "", 0)
	require.Error(t, err)
}
