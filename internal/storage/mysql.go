package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ai-resume-go/internal/config"
	"ai-resume-go/internal/storage/models"
	"ai-resume-go/internal/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("ai-resume-go/storage/mysql")

// ErrResumeNotFound 简历记录不存在
var ErrResumeNotFound = errors.New("resume not found")

type spanContextKey struct{}

// GormTracingPlugin 是一个GORM插件，用于向OpenTelemetry中添加数据库操作的追踪点
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	disableErrSkip bool
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")),
		cb.Create().After("gorm:create").Register("otel:after_create", p.after()),
		cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")),
		cb.Query().After("gorm:query").Register("otel:after_query", p.after()),
		cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")),
		cb.Update().After("gorm:update").Register("otel:after_update", p.after()),
		cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")),
		cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()),
		cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")),
		cb.Row().After("gorm:row").Register("otel:after_row", p.after()),
		cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")),
		cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()),
	)
}

// before 返回在GORM操作之前执行的回调函数
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		opts := []trace.SpanStartOption{
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		}
		if sql := db.Statement.SQL.String(); sql != "" {
			opts = append(opts, trace.WithAttributes(attribute.String("db.statement", tracing.SafeSQL(sql))))
		}

		newCtx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, tableName), opts...)
		db.Statement.Context = context.WithValue(newCtx, spanContextKey{}, span)
	}
}

// after 返回在GORM操作之后执行的回调函数
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement.Context == nil {
			return
		}
		span, ok := db.Statement.Context.Value(spanContextKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 查不到记录属于正常业务分支
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		disableErrSkip: true,
	}
}

// WithDisableErrSkip 设置是否禁用错误跳过
func (p *GormTracingPlugin) WithDisableErrSkip(disable bool) *GormTracingPlugin {
	p.disableErrSkip = disable
	return p
}

// MySQL 提供简历、AI 处理日志和 outbox 的持久化
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	default:
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构，迁移期间关闭SQL日志
func (m *MySQL) autoMigrateSchema() error {
	silentDB := m.db.Session(&gorm.Session{Logger: m.db.Logger.LogMode(logger.Silent)})
	err := silentDB.AutoMigrate(
		&models.Resume{},
		&models.AIProcessingLog{},
		&models.OutboxMessage{},
	)
	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// CreateResume 保存简历，event 非空时在同一事务内写入 outbox
func (m *MySQL) CreateResume(ctx context.Context, resume *models.Resume, event *models.OutboxMessage) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(resume).Error; err != nil {
			return fmt.Errorf("保存简历失败: %w", err)
		}
		return InsertOutbox(tx, event)
	})
}

// GetResume 按 ID 获取简历
func (m *MySQL) GetResume(ctx context.Context, id string) (*models.Resume, error) {
	var resume models.Resume
	err := m.db.WithContext(ctx).First(&resume, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResumeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询简历 %s 失败: %w", id, err)
	}
	return &resume, nil
}

// ListResumes 分页列出简历，按创建时间倒序，同时返回总数
func (m *MySQL) ListResumes(ctx context.Context, offset, limit int) ([]models.Resume, int64, error) {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.ListResumes", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int("page.offset", offset), attribute.Int("page.limit", limit))

	var total int64
	if err := m.db.WithContext(ctx).Model(&models.Resume{}).Count(&total).Error; err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, 0, fmt.Errorf("统计简历数量失败: %w", err)
	}

	resumes := make([]models.Resume, 0, limit)
	err := m.db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&resumes).Error
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, 0, fmt.Errorf("查询简历列表失败: %w", err)
	}
	span.SetAttributes(attribute.Int64("resume.total", total))
	return resumes, total, nil
}

// DeleteResume 删除简历记录
func (m *MySQL) DeleteResume(ctx context.Context, id string) error {
	result := m.db.WithContext(ctx).Delete(&models.Resume{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("删除简历 %s 失败: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrResumeNotFound
	}
	return nil
}

// UpdateResumeStatus 更新简历处理状态
func (m *MySQL) UpdateResumeStatus(ctx context.Context, id, status string) error {
	result := m.db.WithContext(ctx).Model(&models.Resume{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("更新简历 %s 状态失败: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrResumeNotFound
	}
	return nil
}

// UpdateResume 按列更新简历，updates 为空时只校验存在性
func (m *MySQL) UpdateResume(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		_, err := m.GetResume(ctx, id)
		return err
	}
	result := m.db.WithContext(ctx).Model(&models.Resume{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("更新简历 %s 失败: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		// MySQL 在值未变化时 RowsAffected 为 0，需要再确认一次
		if _, err := m.GetResume(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// CreateProcessingLog 写入一条 AI 处理日志，event 非空时在同一事务内写入 outbox
func (m *MySQL) CreateProcessingLog(ctx context.Context, entry *models.AIProcessingLog, event *models.OutboxMessage) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("保存AI处理日志失败: %w", err)
		}
		return InsertOutbox(tx, event)
	})
}

// ListProcessingLogs 返回某份简历最近的处理日志，最新的在前
func (m *MySQL) ListProcessingLogs(ctx context.Context, resumeID string, limit int) ([]models.AIProcessingLog, error) {
	logs := make([]models.AIProcessingLog, 0, limit)
	err := m.db.WithContext(ctx).
		Where("resume_id = ?", resumeID).
		Order("created_at desc").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("查询简历 %s 的处理日志失败: %w", resumeID, err)
	}
	return logs, nil
}

// InsertOutbox 在调用方事务内写入一条 outbox 消息，nil 时不做任何事
func InsertOutbox(tx *gorm.DB, event *models.OutboxMessage) error {
	if event == nil {
		return nil
	}
	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("写入outbox消息失败: %w", err)
	}
	return nil
}
