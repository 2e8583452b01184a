package mysql

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/devcommunity/internal/infrastructure/config"
)

// Schema users表的建表语句
// 表结构由DBA或部署流程维护，这里不做自动迁移；集成测试用它初始化测试库。
//
//go:embed schema.sql
var Schema string

// NewDB 创建数据库连接
// 连接池参数来自配置，log_sql开启时SQL以debug级别写入logrus。
func NewDB(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.LogSQL {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// 把驱动的唯一键冲突翻译成gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.WithFields(logrus.Fields{"host": cfg.Host, "db": cfg.DBName}).Info("数据库连接成功")
	return db, nil
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UserModel GORM用户模型
// domain/user.User不依赖GORM，Repository负责两者之间的转换。
// email列使用utf8mb4_bin排序规则，唯一索引和查询都区分大小写（见schema.sql）。
type UserModel struct {
	ID                string    `gorm:"primaryKey;type:char(36)"`
	Name              string    `gorm:"size:100;not null"`
	DateOfBirth       time.Time `gorm:"type:date;not null"`
	Email             string    `gorm:"size:255;not null;uniqueIndex:uk_users_email"`
	Gender            string    `gorm:"size:10;not null"`
	MainLanguage      string    `gorm:"size:50;not null"`
	YearsOfExperience int       `gorm:"type:bigint;not null"`
	PasswordHash      string    `gorm:"size:255;not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}
