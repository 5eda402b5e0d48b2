package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outbox 消息状态
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// OutboxMessage represents a message to be published asynchronously.
type OutboxMessage struct {
	ID               uint64     `gorm:"primaryKey;autoIncrement"`
	EventID          string     `gorm:"type:char(36);not null;uniqueIndex"`
	AggregateID      string     `gorm:"type:varchar(36);not null;index"`
	EventType        string     `gorm:"type:varchar(255);not null"`
	Payload          string     `gorm:"type:json;not null"`
	TargetExchange   string     `gorm:"type:varchar(255);not null"`
	TargetRoutingKey string     `gorm:"type:varchar(255);not null"`
	Status           string     `gorm:"type:varchar(20);default:'PENDING';not null;index:idx_outbox_status_created_at"`
	RetryCount       int        `gorm:"default:0"`
	CreatedAt        time.Time  `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_outbox_status_created_at,sort:asc"`
	ProcessedAt      *time.Time `gorm:"type:datetime(6);null"`
	ErrorMessage     string     `gorm:"type:text"`
}

// TableName specifies the table name for the OutboxMessage model.
func (OutboxMessage) TableName() string {
	return "outbox_messages"
}

// EventEnvelope 发布到 MQ 的事件外层结构
type EventEnvelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Data        json.RawMessage `json:"data"`
}

// NewOutboxMessage 构造一条待发布的事件，payload 会被包进 EventEnvelope
func NewOutboxMessage(aggregateID, eventType, exchange, routingKey string, payload interface{}) (*OutboxMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化事件 %s 失败: %w", eventType, err)
	}
	eventID := uuid.NewString()
	envelope, err := json.Marshal(EventEnvelope{
		EventID:     eventID,
		EventType:   eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化事件 %s 失败: %w", eventType, err)
	}
	if routingKey == "" {
		routingKey = eventType
	}
	return &OutboxMessage{
		EventID:          eventID,
		AggregateID:      aggregateID,
		EventType:        eventType,
		Payload:          string(envelope),
		TargetExchange:   exchange,
		TargetRoutingKey: routingKey,
		Status:           OutboxStatusPending,
	}, nil
}
