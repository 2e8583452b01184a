package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/devcommunity/internal/infrastructure/config"
)

// Schema users表的建表语句，集成测试用它初始化测试库
//
//go:embed schema.sql
var Schema string

// NewPool 创建pgx连接池并测试连通性
func NewPool(ctx context.Context, cfg config.PostgresConfig, log logrus.FieldLogger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("解析PostgreSQL配置失败: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("创建PostgreSQL连接池失败: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("PostgreSQL连接测试失败: %w", err)
	}

	log.WithFields(logrus.Fields{"host": cfg.Host, "db": cfg.DBName}).Info("PostgreSQL连接成功")
	return pool, nil
}
