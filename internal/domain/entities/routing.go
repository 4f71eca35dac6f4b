package entities

import (
	"time"

	"github.com/google/uuid"
)

// RoutingType represents how a payment reaches its destination
type RoutingType string

const (
	RoutingTypeSameBank         RoutingType = "SAME_BANK"
	RoutingTypeOtherBank        RoutingType = "OTHER_BANK"
	RoutingTypeIncomingClearing RoutingType = "INCOMING_CLEARING"
	RoutingTypeExternalSystem   RoutingType = "EXTERNAL_SYSTEM"
)

// ProcessingMode represents how a payment is dispatched downstream
type ProcessingMode string

const (
	ProcessingModeSync  ProcessingMode = "SYNC"
	ProcessingModeAsync ProcessingMode = "ASYNC"
	ProcessingModeBatch ProcessingMode = "BATCH"
)

// MessageFormat represents the wire format of the outbound message
type MessageFormat string

const (
	MessageFormatJSON MessageFormat = "JSON"
	MessageFormatXML  MessageFormat = "XML"
)

// ClearingSystemConfig represents an external clearing network
type ClearingSystemConfig struct {
	ID                       uuid.UUID  `json:"id"`
	Code                     string     `json:"code"`
	Name                     string     `json:"name"`
	Country                  string     `json:"country"`
	Currency                 string     `json:"currency"`
	SupportedMessageTypes    []string   `json:"supportedMessageTypes"`
	SupportedPaymentTypes    []string   `json:"supportedPaymentTypes"`
	SupportedLocalInstruments []string  `json:"supportedLocalInstruments"`
	ProcessingMode           ProcessingMode `json:"processingMode"`
	TimeoutSeconds           int        `json:"timeoutSeconds"`
	EndpointURL              string     `json:"endpointUrl"`
	AuthMethod               string     `json:"authMethod,omitempty"`
	IsActive                 bool       `json:"isActive"`
	AuthorizedTenants        []string   `json:"authorizedTenants,omitempty"`
	CreatedAt                time.Time  `json:"createdAt"`
	UpdatedAt                time.Time  `json:"updatedAt"`
	DeletedAt                *time.Time `json:"-"`
}

// TenantAuthorized reports whether the tenant may use this clearing system.
// An empty authorization list means every tenant is allowed.
func (c *ClearingSystemConfig) TenantAuthorized(tenantID string) bool {
	if len(c.AuthorizedTenants) == 0 {
		return true
	}
	for _, t := range c.AuthorizedTenants {
		if t == tenantID {
			return true
		}
	}
	return false
}

// PaymentRoutingRule maps a payment context onto a clearing route
type PaymentRoutingRule struct {
	ID                  uuid.UUID      `json:"id"`
	TenantID            string         `json:"tenantId"`
	PaymentType         string         `json:"paymentType,omitempty"`
	LocalInstrumentCode string         `json:"localInstrumentCode,omitempty"`
	RoutingType         RoutingType    `json:"routingType"`
	ClearingSystemCode  string         `json:"clearingSystemCode,omitempty"`
	ProcessingMode      ProcessingMode `json:"processingMode,omitempty"`
	MessageFormat       MessageFormat  `json:"messageFormat,omitempty"`
	Priority            int            `json:"priority"`
	IsActive            bool           `json:"isActive"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	DeletedAt           *time.Time     `json:"-"`
}

// PaymentRoutingResult is the derived route for a payment. Never persisted
// as authoritative state.
type PaymentRoutingResult struct {
	RoutingType            RoutingType    `json:"routingType"`
	ClearingSystemCode     string         `json:"clearingSystemCode,omitempty"`
	ClearingSystemName     string         `json:"clearingSystemName,omitempty"`
	LocalInstrumentCode    string         `json:"localInstrumentCode,omitempty"`
	PaymentType            string         `json:"paymentType"`
	RequiresClearingSystem bool           `json:"requiresClearingSystem"`
	ProcessingMode         ProcessingMode `json:"processingMode"`
	MessageFormat          MessageFormat  `json:"messageFormat"`
	EndpointURL            string         `json:"endpointUrl,omitempty"`
	AuthMethod             string         `json:"authMethod,omitempty"`
	SchemeConfigurationID  string         `json:"schemeConfigurationId"`
}

// RouteRequest is the context for a routing decision
type RouteRequest struct {
	PaymentType         string `json:"paymentType" form:"paymentType" binding:"required"`
	LocalInstrumentCode string `json:"localInstrumentCode" form:"localInstrumentCode"`
	MessageType         string `json:"messageType" form:"messageType" binding:"required"`
	DebtorAccount       string `json:"debtorAccount" form:"debtorAccount"`
	CreditorAccount     string `json:"creditorAccount" form:"creditorAccount"`
}
