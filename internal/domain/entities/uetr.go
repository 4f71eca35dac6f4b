package entities

import (
	"time"

	"github.com/google/uuid"
)

// TrackingDirection represents the direction of a tracked message
type TrackingDirection string

const (
	TrackingDirectionInbound  TrackingDirection = "INBOUND"
	TrackingDirectionOutbound TrackingDirection = "OUTBOUND"
)

// UETR layout: timestamp14 | systemId4 | messageTypeId8 | random10
const (
	UETRLength          = 36
	UETRTimestampLength = 14
	UETRSystemIDLength  = 4
	UETRMessageLength   = 8
	UETRRandomLength    = 10
)

// UETRSegments holds the segments embedded in a UETR
type UETRSegments struct {
	Timestamp     time.Time `json:"timestamp"`
	SystemID      string    `json:"systemId"`
	MessageTypeID string    `json:"messageTypeId"`
}

// UETRTrackingRecord represents one hop of a payment journey
type UETRTrackingRecord struct {
	ID                   uuid.UUID         `json:"id"`
	UETR                 string            `json:"uetr"`
	MessageType          string            `json:"messageType"`
	TenantID             string            `json:"tenantId"`
	TransactionReference string            `json:"transactionReference"`
	Direction            TrackingDirection `json:"direction"`
	Status               string            `json:"status"`
	StatusReason         string            `json:"statusReason,omitempty"`
	ProcessingSystem     string            `json:"processingSystem,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}

// UETRSearchFilter narrows tracking record searches
type UETRSearchFilter struct {
	TenantID    string             `json:"tenantId,omitempty"`
	MessageType string             `json:"messageType,omitempty"`
	Status      string             `json:"status,omitempty"`
	Direction   *TrackingDirection `json:"direction,omitempty"`
	From        *time.Time         `json:"from,omitempty"`
	To          *time.Time         `json:"to,omitempty"`
	Page        int                `json:"page,omitempty"`
	Limit       int                `json:"limit,omitempty"`
}

// UETRStatistics summarizes journey outcomes for a tenant
type UETRStatistics struct {
	Total           int64   `json:"total"`
	Completed       int64   `json:"completed"`
	Failed          int64   `json:"failed"`
	Pending         int64   `json:"pending"`
	AvgProcessingMs float64 `json:"avgProcessingMs"`
}

// GenerateUETRInput is the request body for POST /uetr/generate
type GenerateUETRInput struct {
	MessageType string `json:"messageType" binding:"required"`
}
