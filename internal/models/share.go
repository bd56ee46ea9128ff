package models

import (
	"time"
)

// ShareState 表示分享链接在某一时刻的有效性，由读取时计算得出，不落库
type ShareState int

const (
	ShareStateValid     ShareState = iota // 可用
	ShareStateNotFound                    // 不存在
	ShareStateExpired                     // 已过期
	ShareStateExhausted                   // 下载次数已用完
)

func (s ShareState) String() string {
	switch s {
	case ShareStateValid:
		return "valid"
	case ShareStateNotFound:
		return "not_found"
	case ShareStateExpired:
		return "expired"
	case ShareStateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

type Share struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID          string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"` // 唯一分享ID，用于生成链接
	FileName      string     `gorm:"type:varchar(255);not null;index" json:"file_name"` // 被分享文件的磁盘文件名（弱引用，文件可能已被删除）
	Password      *string    `gorm:"type:varchar(255)" json:"-"`                        // 可选：分享密码的哈希值
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`                              // 可选：分享链接过期时间，nil 表示永不过期
	MaxDownloads  *int64     `json:"max_downloads,omitempty"`                           // 可选：下载次数上限，nil 表示不限制
	DownloadCount int64      `gorm:"not null;default:0" json:"download_count"`          // 已下载次数，只增不减
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

// 指定gorm的表名
func (Share) TableName() string {
	return "shares"
}

// StateAt 计算分享在 now 时刻的有效性
func (s *Share) StateAt(now time.Time) ShareState {
	if s.ExpiresAt != nil && now.After(*s.ExpiresAt) {
		return ShareStateExpired
	}
	if s.MaxDownloads != nil && s.DownloadCount >= *s.MaxDownloads {
		return ShareStateExhausted
	}
	return ShareStateValid
}

// HasPassword 判断分享是否设置了密码
func (s *Share) HasPassword() bool {
	return s.Password != nil && *s.Password != ""
}

// ShareSummary 是对外暴露的分享信息，密码仅以布尔形式出现
type ShareSummary struct {
	UUID          string     `json:"uuid"`
	FileName      string     `json:"file_name"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	MaxDownloads  *int64     `json:"max_downloads,omitempty"`
	DownloadCount int64      `json:"download_count"`
	HasPassword   bool       `json:"has_password"`
}

// Summary 生成不含敏感字段的分享摘要
func (s *Share) Summary() ShareSummary {
	return ShareSummary{
		UUID:          s.UUID,
		FileName:      s.FileName,
		CreatedAt:     s.CreatedAt,
		ExpiresAt:     s.ExpiresAt,
		MaxDownloads:  s.MaxDownloads,
		DownloadCount: s.DownloadCount,
		HasPassword:   s.HasPassword(),
	}
}
