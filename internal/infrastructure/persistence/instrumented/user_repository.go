package instrumented

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xiebiao/devcommunity/internal/domain/user"
	"github.com/xiebiao/devcommunity/pkg/metrics"
	"github.com/xiebiao/devcommunity/pkg/tracing"
)

// UserRepository 为任意用户仓储记录耗时、错误次数和追踪span
// “不存在”和“已存在”属于正常业务结果，不计入错误。
type UserRepository struct {
	next   user.Repository
	driver string
}

// NewUserRepository 包装仓储，driver作为指标标签（memory/mysql/postgres）
func NewUserRepository(next user.Repository, driver string) *UserRepository {
	metrics.InitMetrics()
	return &UserRepository{next: next, driver: driver}
}

func (r *UserRepository) Insert(ctx context.Context, u *user.User) (err error) {
	ctx, done := r.observe(ctx, "insert")
	defer func() { done(err) }()
	return r.next.Insert(ctx, u)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (u *user.User, err error) {
	ctx, done := r.observe(ctx, "find_by_id")
	defer func() { done(err) }()
	return r.next.FindByID(ctx, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (u *user.User, err error) {
	ctx, done := r.observe(ctx, "find_by_email")
	defer func() { done(err) }()
	return r.next.FindByEmail(ctx, email)
}

func (r *UserRepository) ListAll(ctx context.Context) (users []*user.User, err error) {
	ctx, done := r.observe(ctx, "list_all")
	defer func() { done(err) }()
	return r.next.ListAll(ctx)
}

func (r *UserRepository) RemoveByID(ctx context.Context, id string) (removed bool, err error) {
	ctx, done := r.observe(ctx, "remove_by_id")
	defer func() { done(err) }()
	return r.next.RemoveByID(ctx, id)
}

func (r *UserRepository) observe(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "UserRepository."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("db.system", r.driver)),
	)

	return ctx, func(err error) {
		metrics.StoreOperationDuration.WithLabelValues(r.driver, op).Observe(time.Since(start).Seconds())
		if isDomainOutcome(err) {
			span.SetAttributes(attribute.String("user.outcome", err.Error()))
			err = nil
		} else if err != nil {
			metrics.StoreOperationErrorsTotal.WithLabelValues(r.driver, op).Inc()
		}
		tracing.EndSpan(span, err)
	}
}

func isDomainOutcome(err error) bool {
	return errors.Is(err, user.ErrUserNotFound) || errors.Is(err, user.ErrUserAlreadyExists)
}

var _ user.Repository = (*UserRepository)(nil)
