// Package metrics 用户服务的Prometheus指标
//
// 所有指标注册在默认Registry上，进程启动时调用一次InitMetrics。
// CLI这类短生命周期进程没有/metrics端点可供抓取，退出前用Push推送到Pushgateway。
//
// 命名约定：
//   - Counter以_total结尾
//   - Histogram以单位结尾（_seconds）
//   - 标签只使用有限取值（driver、operation、result），不要用user_id、email作标签
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	initOnce sync.Once

	// 业务指标

	// UsersRegisteredTotal 注册成功总数
	UsersRegisteredTotal prometheus.Counter

	// UserRegistrationsFailedTotal 注册失败总数
	// 标签：reason（validation/conflict/internal）
	UserRegistrationsFailedTotal *prometheus.CounterVec

	// UsersDeletedTotal 删除成功总数
	UsersDeletedTotal prometheus.Counter

	// CredentialChecksTotal 凭据校验次数
	// 标签：result（valid/invalid/error）
	CredentialChecksTotal *prometheus.CounterVec

	// 仓储指标

	// StoreOperationDuration 仓储操作耗时
	// 标签：driver（memory/mysql/postgres/redis）、operation（insert/find_by_id/...）
	StoreOperationDuration *prometheus.HistogramVec

	// StoreOperationErrorsTotal 仓储操作失败次数（不含“不存在”、“已存在”这类领域结果）
	StoreOperationErrorsTotal *prometheus.CounterVec

	// CacheRequestsTotal 用户缓存访问次数
	// 标签：result（hit/miss/error）
	CacheRequestsTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数
	// 标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// 消息队列指标

	// MessagesPublishedTotal 事件发布次数
	// 标签：exchange、routing_key、result（success/failure）
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 事件消费次数
	// 标签：queue、result（success/failure）
	MessagesConsumedTotal *prometheus.CounterVec
)

// InitMetrics 注册所有指标，可重复调用
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	UsersRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "users_registered_total",
		Help: "注册成功的用户总数",
	})

	UserRegistrationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "user_registrations_failed_total",
		Help: "注册失败总数",
	}, []string{"reason"})

	UsersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "users_deleted_total",
		Help: "删除的用户总数",
	})

	CredentialChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_checks_total",
		Help: "凭据校验次数",
	}, []string{"result"})

	StoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "user_store_operation_duration_seconds",
		Help: "用户仓储操作耗时（秒）",
		// 内存存储在微秒级，数据库在毫秒级
		Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"driver", "operation"})

	StoreOperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "user_store_operation_errors_total",
		Help: "用户仓储操作失败次数",
	}, []string{"driver", "operation"})

	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "user_cache_requests_total",
		Help: "用户缓存访问次数",
	}, []string{"result"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
	}, []string{"name"})

	CircuitBreakerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_requests_total",
		Help: "熔断器请求总数",
	}, []string{"name", "result"})

	MessagesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_published_total",
		Help: "事件发布次数",
	}, []string{"exchange", "routing_key", "result"})

	MessagesConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_consumed_total",
		Help: "事件消费次数",
	}, []string{"queue", "result"})
}

// Result 把布尔结果转成标签值
func Result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Push 将默认Registry中的指标推送到Pushgateway
// url为空时不做任何事。
func Push(url, job string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).
		Gatherer(prometheus.DefaultGatherer).
		Push()
}
