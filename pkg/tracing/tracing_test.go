package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	shutdown, err := Install(context.Background(), Config{
		ServiceName: "devcommunity-test",
		SampleRatio: 1,
	}, sdktrace.WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("安装TracerProvider失败: %v", err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })
	return recorder
}

// TestStartSpan 父子span属于同一条链路
func TestStartSpan(t *testing.T) {
	recorder := installRecorder(t)

	ctx, parent := StartSpan(context.Background(), "RegisterUseCase.Execute")
	_, child := StartSpan(ctx, "UserStore.Insert")
	child.SetAttributes(attribute.String("store.driver", "memory"))
	child.End()
	parent.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("期望2个span，实际%d个", len(spans))
	}
	childSpan, parentSpan := spans[0], spans[1]
	if childSpan.Parent().SpanID() != parentSpan.SpanContext().SpanID() {
		t.Error("子span的父span不正确")
	}
	if childSpan.SpanContext().TraceID() != parentSpan.SpanContext().TraceID() {
		t.Error("父子span的TraceID应相同")
	}
	if got := childSpan.Attributes(); len(got) != 1 || got[0].Value.AsString() != "memory" {
		t.Errorf("span属性不符: %v", got)
	}
}

// TestEndSpan 错误写入span状态
func TestEndSpan(t *testing.T) {
	recorder := installRecorder(t)

	_, okSpan := StartSpan(context.Background(), "ok")
	EndSpan(okSpan, nil)
	_, errSpan := StartSpan(context.Background(), "failed")
	EndSpan(errSpan, errors.New("connection refused"))

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("期望2个span，实际%d个", len(spans))
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("期望状态Ok，实际%v", spans[0].Status())
	}
	if spans[1].Status().Code != codes.Error || spans[1].Status().Description != "connection refused" {
		t.Errorf("期望状态Error，实际%v", spans[1].Status())
	}
	if len(spans[1].Events()) != 1 {
		t.Errorf("期望记录1个错误事件，实际%d个", len(spans[1].Events()))
	}
}

// TestExtractIDs 提取TraceID和SpanID
func TestExtractIDs(t *testing.T) {
	installRecorder(t)

	if ExtractTraceID(context.Background()) != "" || ExtractSpanID(context.Background()) != "" {
		t.Error("没有span时应返回空字符串")
	}

	ctx, span := StartSpan(context.Background(), "op")
	defer span.End()

	if got := ExtractTraceID(ctx); len(got) != 32 || got != span.SpanContext().TraceID().String() {
		t.Errorf("TraceID不正确: %s", got)
	}
	if got := ExtractSpanID(ctx); len(got) != 16 || got != span.SpanContext().SpanID().String() {
		t.Errorf("SpanID不正确: %s", got)
	}
}

// TestSampleRatioZero 采样率为0时不记录
func TestSampleRatioZero(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	shutdown, err := Install(context.Background(), Config{ServiceName: "test", SampleRatio: 0},
		sdktrace.WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("安装TracerProvider失败: %v", err)
	}
	defer shutdown(context.Background())

	_, span := StartSpan(context.Background(), "dropped")
	span.End()

	if n := len(recorder.Ended()); n != 0 {
		t.Errorf("采样率为0时不应记录span，实际%d个", n)
	}
}
