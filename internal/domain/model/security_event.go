package model

import "time"

// Security event kinds.
const (
	SecurityEventSignatureInvalid = "webhook_signature_invalid"
	SecurityEventAuthRejected     = "auth_rejected"
	SecurityEventRateLimited      = "rate_limited"
)

// SecurityEvent records a rejected or suspicious request.
type SecurityEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind      string    `gorm:"not null;size:100;index" json:"kind"`
	SourceIP  string    `gorm:"size:64" json:"source_ip"`
	Path      string    `gorm:"size:255" json:"path"`
	Detail    string    `gorm:"size:1024" json:"detail"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (SecurityEvent) TableName() string {
	return "security_events"
}
