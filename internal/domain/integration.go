package domain

import (
	"encoding/json"
	"time"
)

// ClearingTag 支付清算供应商标签
type ClearingTag string

const (
	ClearingPayPlus     ClearingTag = "PAY_PLUS"
	ClearingCreditGuard ClearingTag = "CREDIT_GUARD"
	ClearingGama        ClearingTag = "GAMA"
)

// AllClearingTags 返回全部清算标签
// 注册表构造时据此做完整性检查。
func AllClearingTags() []ClearingTag {
	return []ClearingTag{ClearingPayPlus, ClearingCreditGuard, ClearingGama}
}

// Valid 判断标签是否属于已知枚举
func (t ClearingTag) Valid() bool {
	switch t {
	case ClearingPayPlus, ClearingCreditGuard, ClearingGama:
		return true
	default:
		return false
	}
}

// ManagementTag 管理端（POS）供应商标签
type ManagementTag string

const (
	ManagementDorix  ManagementTag = "DORIX"
	ManagementPresto ManagementTag = "PRESTO"
)

// AllManagementTags 返回全部管理端标签
func AllManagementTags() []ManagementTag {
	return []ManagementTag{ManagementDorix, ManagementPresto}
}

// Valid 判断标签是否属于已知枚举
func (t ManagementTag) Valid() bool {
	switch t {
	case ManagementDorix, ManagementPresto:
		return true
	default:
		return false
	}
}

// ClearingIntegration 清算集成配置（持久化，本核心只读）
//
// VendorData 是供应商私有的不透明配置块（终端号、API 密钥引用等），
// 由各供应商实现自行解析。
type ClearingIntegration struct {
	ID         string          `gorm:"primaryKey;size:64" json:"id"`
	VenueID    string          `gorm:"index;size:64" json:"venue_id"`
	Provider   ClearingTag     `gorm:"size:32" json:"provider"`
	VendorData json.RawMessage `gorm:"type:json" json:"vendor_data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName 指定表名
func (ClearingIntegration) TableName() string {
	return "clearing_integrations"
}

// ManagementIntegration 管理端集成配置（持久化，本核心只读）
type ManagementIntegration struct {
	ID         string          `gorm:"primaryKey;size:64" json:"id"`
	VenueID    string          `gorm:"index;size:64" json:"venue_id"`
	Provider   ManagementTag   `gorm:"size:32" json:"provider"`
	VendorData json.RawMessage `gorm:"type:json" json:"vendor_data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName 指定表名
func (ManagementIntegration) TableName() string {
	return "management_integrations"
}
