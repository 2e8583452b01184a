package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestInitMetrics 重复初始化不会重复注册
func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics()

	if UsersRegisteredTotal == nil || UserRegistrationsFailedTotal == nil || CredentialChecksTotal == nil {
		t.Fatal("业务指标未初始化")
	}
	if StoreOperationDuration == nil || CacheRequestsTotal == nil {
		t.Fatal("仓储指标未初始化")
	}
	if CircuitBreakerState == nil || MessagesPublishedTotal == nil || MessagesConsumedTotal == nil {
		t.Fatal("基础设施指标未初始化")
	}
}

// TestCounter 计数器递增
func TestCounter(t *testing.T) {
	InitMetrics()

	before := getCounterValue(t, UsersRegisteredTotal)
	UsersRegisteredTotal.Inc()
	UsersRegisteredTotal.Inc()

	if got := getCounterValue(t, UsersRegisteredTotal) - before; got != 2 {
		t.Errorf("Counter增量错误: expected=2, got=%f", got)
	}
}

// TestCounterVec 不同标签独立计数
func TestCounterVec(t *testing.T) {
	InitMetrics()

	valid := prometheus.Labels{"result": "valid"}
	invalid := prometheus.Labels{"result": "invalid"}
	beforeValid := getCounterVecValue(t, CredentialChecksTotal, valid)
	beforeInvalid := getCounterVecValue(t, CredentialChecksTotal, invalid)

	CredentialChecksTotal.With(valid).Inc()
	CredentialChecksTotal.With(invalid).Inc()
	CredentialChecksTotal.With(invalid).Inc()

	if got := getCounterVecValue(t, CredentialChecksTotal, valid) - beforeValid; got != 1 {
		t.Errorf("valid计数错误: expected=1, got=%f", got)
	}
	if got := getCounterVecValue(t, CredentialChecksTotal, invalid) - beforeInvalid; got != 2 {
		t.Errorf("invalid计数错误: expected=2, got=%f", got)
	}
}

// TestHistogramVec 耗时直方图
func TestHistogramVec(t *testing.T) {
	InitMetrics()

	labels := prometheus.Labels{"driver": "memory", "operation": "insert"}
	before := getHistogramVecCount(t, StoreOperationDuration, labels)

	StoreOperationDuration.With(labels).Observe(0.0002)
	StoreOperationDuration.With(labels).Observe(0.003)

	if got := getHistogramVecCount(t, StoreOperationDuration, labels) - before; got != 2 {
		t.Errorf("Histogram观测次数错误: expected=2, got=%d", got)
	}
}

// TestGaugeVec 熔断器状态
func TestGaugeVec(t *testing.T) {
	InitMetrics()

	labels := prometheus.Labels{"name": "user-events"}
	CircuitBreakerState.With(labels).Set(1)

	if got := getGaugeVecValue(t, CircuitBreakerState, labels); got != 1 {
		t.Errorf("Gauge值错误: expected=1, got=%f", got)
	}
}

func TestResult(t *testing.T) {
	if Result(true) != "success" || Result(false) != "failure" {
		t.Error("Result标签值错误")
	}
}

// TestPush 推送到Pushgateway
func TestPush(t *testing.T) {
	InitMetrics()

	var calls int32
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := Push(srv.URL, "userctl"); err != nil {
		t.Fatalf("推送失败: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("期望推送1次，实际%d次", calls)
	}
	if !strings.HasSuffix(path, "/job/userctl") {
		t.Errorf("推送路径错误: %s", path)
	}

	if err := Push("", "userctl"); err != nil {
		t.Errorf("未配置地址时不应报错: %v", err)
	}
}

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("读取Counter值失败: %v", err)
	}
	return metric.Counter.GetValue()
}

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels prometheus.Labels) float64 {
	t.Helper()
	return getCounterValue(t, counterVec.With(labels))
}

func getGaugeVecValue(t *testing.T, gaugeVec *prometheus.GaugeVec, labels prometheus.Labels) float64 {
	t.Helper()
	var metric dto.Metric
	if err := gaugeVec.With(labels).Write(&metric); err != nil {
		t.Fatalf("读取GaugeVec值失败: %v", err)
	}
	return metric.Gauge.GetValue()
}

func getHistogramVecCount(t *testing.T, histogramVec *prometheus.HistogramVec, labels prometheus.Labels) uint64 {
	t.Helper()
	var metric dto.Metric
	if err := histogramVec.With(labels).(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("读取HistogramVec值失败: %v", err)
	}
	return metric.Histogram.GetSampleCount()
}
