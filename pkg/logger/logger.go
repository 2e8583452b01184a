// Package logger 基于logrus的结构化日志
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "github.com/xiebiao/devcommunity/pkg/errors"
)

// Config 日志配置
type Config struct {
	Level        string // debug | info | warn | error
	Format       string // console | json
	Output       string // stdout | stderr | 文件路径
	EnableCaller bool
}

// New 按配置创建logger
// Output为文件路径时以追加方式打开，调用方负责在退出时关闭返回的io.Closer（stdout/stderr时为nil）。
func New(cfg Config) (*logrus.Logger, io.Closer, error) {
	l := logrus.New()

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "console", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	l.SetReportCaller(cfg.EnableCaller)

	var closer io.Closer
	switch cfg.Output {
	case "", "stdout":
		l.SetOutput(os.Stdout)
	case "stderr":
		l.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		l.SetOutput(f)
		closer = f
	}

	return l, closer, nil
}

// Discard 丢弃所有输出的logger，测试和未配置日志时使用
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// WithError 附带错误信息的日志条目
// AppError的Code单独作为字段输出，便于按错误码检索。
func WithError(l logrus.FieldLogger, err error) *logrus.Entry {
	entry := l.WithError(err)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		entry = entry.WithField("code", appErr.Code)
	}
	return entry
}
