package instrumented

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/xiebiao/devcommunity/internal/domain/user"
	"github.com/xiebiao/devcommunity/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/devcommunity/pkg/metrics"
	"github.com/xiebiao/devcommunity/pkg/tracing"
)

type brokenRepo struct {
	*memory.UserStore
}

func (brokenRepo) ListAll(context.Context) ([]*user.User, error) {
	return nil, errors.New("connection reset")
}

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	shutdown, err := tracing.Install(context.Background(), tracing.Config{
		ServiceName: "devcommunity-test",
		SampleRatio: 1,
	}, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })
	return recorder
}

func testUser() *user.User {
	return &user.User{
		ID:          "u-1",
		Name:        "Grace",
		DateOfBirth: time.Date(1906, 12, 9, 0, 0, 0, 0, time.UTC),
		Email:       "grace@example.com",
		Gender:      user.GenderFemale,
	}
}

func TestUserRepository_PassesThrough(t *testing.T) {
	installRecorder(t)
	repo := NewUserRepository(memory.NewUserStore(), "memory")
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testUser()))

	got, err := repo.FindByEmail(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	removed, err := repo.RemoveByID(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestUserRepository_DomainOutcomesAreNotErrors(t *testing.T) {
	recorder := installRecorder(t)
	repo := NewUserRepository(memory.NewUserStore(), "memory-outcome")
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	require.NoError(t, repo.Insert(ctx, testUser()))
	err = repo.Insert(ctx, testUser())
	assert.ErrorIs(t, err, user.ErrUserAlreadyExists)

	assert.Zero(t, testutil.ToFloat64(metrics.StoreOperationErrorsTotal.WithLabelValues("memory-outcome", "find_by_id")))
	assert.Zero(t, testutil.ToFloat64(metrics.StoreOperationErrorsTotal.WithLabelValues("memory-outcome", "insert")))

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "UserRepository.find_by_id", spans[0].Name())
	for _, s := range spans {
		assert.NotEqual(t, codes.Error, s.Status().Code, s.Name())
	}
}

func TestUserRepository_CountsInfrastructureErrors(t *testing.T) {
	recorder := installRecorder(t)
	repo := NewUserRepository(brokenRepo{memory.NewUserStore()}, "broken")

	_, err := repo.ListAll(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperationErrorsTotal.WithLabelValues("broken", "list_all")))
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "connection reset", spans[0].Status().Description)
}

func TestUserRepository_RecordsDuration(t *testing.T) {
	installRecorder(t)
	repo := NewUserRepository(memory.NewUserStore(), "memory-duration")

	_, _ = repo.ListAll(context.Background())
	_, _ = repo.ListAll(context.Background())

	h, ok := metrics.StoreOperationDuration.WithLabelValues("memory-duration", "list_all").(prometheus.Metric)
	require.True(t, ok)
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	assert.Equal(t, uint64(2), m.GetHistogram().GetSampleCount())
}
