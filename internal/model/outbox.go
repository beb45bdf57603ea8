package model

import (
	"time"
)

// OutboxStatus is the delivery state of an outbox event.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusSent    OutboxStatus = "SENT"
	OutboxStatusFailed  OutboxStatus = "FAILED"
)

// OutboxMessage is a transactional-outbox row. The ledger writes one in the
// same database transaction as the balance mutation and a background sender
// drains it to Kafka, so an event exists iff the transaction committed.
// MessageKey carries the transaction number and doubles as the Kafka
// partition key, keeping events for one transaction in order.
type OutboxMessage struct {
	ID         int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageKey string       `gorm:"type:varchar(64);not null" json:"message_key"`
	Topic      string       `gorm:"type:varchar(64);not null" json:"topic"`
	Payload    string       `gorm:"type:text;not null" json:"payload"`
	Status     OutboxStatus `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"`
	RetryCount int          `gorm:"not null;default:0" json:"retry_count"`
	CreatedAt  time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_message"
}
