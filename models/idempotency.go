package models

import "time"

// IdempotencyKey stores the first completed response for a given request
// hash so retried mutations replay instead of re-executing.
type IdempotencyKey struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Key            string     `json:"key" gorm:"size:128;uniqueIndex:idx_idem_tenant_key,priority:2"` // header value
	RequestHash    string     `json:"request_hash" gorm:"size:64"`                                    // sha256 of method|path|body|tenant|user
	Method         string     `json:"method" gorm:"size:10"`
	Path           string     `json:"path" gorm:"size:255"`
	TenantId       string     `json:"tenant_id" gorm:"size:64;uniqueIndex:idx_idem_tenant_key,priority:1"`
	UserId         string     `json:"user_id" gorm:"size:64"`
	ResponseStatus int        `json:"response_status"` // 0 => not completed yet
	ResponseBody   []byte     `json:"-"`               // raw response body (JSON)
	ContentType    string     `json:"-" gorm:"size:100"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}
