package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"ai-resume-go/internal/config"
)

// Storage 存储管理器，聚合所有存储相关依赖
type Storage struct {
	// 对象存储
	MinIO *MinIO

	// 消息队列
	RabbitMQ *RabbitMQ

	// 关系型数据库
	MySQL *MySQL

	// 键值存储
	Redis *Redis
}

// NewStorage 创建存储管理器。
// MySQL 和 MinIO 是必需的，Redis 与 RabbitMQ 未配置或连接失败时降级运行。
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var err error

	s.MySQL, err = NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("初始化MySQL失败: %w", err)
	}

	minioLogger := log.New(io.Discard, "", 0)
	if cfg.Logger.Level == "debug" {
		minioLogger = log.New(os.Stderr, "[MinIOStorage] ", log.LstdFlags|log.Lshortfile)
	}
	s.MinIO, err = NewMinIO(&cfg.MinIO, minioLogger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("初始化MinIO失败: %w", err)
	}

	var warnings []string
	if cfg.Redis.Address != "" {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Redis: %v", err))
		}
	}
	if cfg.RabbitMQ.URL != "" {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}
	if len(warnings) > 0 {
		log.Printf("警告: 以下存储组件初始化失败，相关功能将被跳过: %s", strings.Join(warnings, "; "))
	}

	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Printf("关闭RabbitMQ连接失败: %v", err)
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Printf("关闭MySQL连接失败: %v", err)
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("关闭Redis连接失败: %v", err)
		}
	}
}
