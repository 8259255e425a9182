package models

import "time"

// 分享记录的接收方类型
// 一条记录要么是用户直发分享，要么属于某次群组扇出，不会两者皆是
const (
	RecipientUser  = "user"
	RecipientGroup = "group"
)

// FileShare 对应 file_shares 表
// 群组分享在调用时按当前成员快照展开，每个成员一条记录，
// SharedToGroupID 标记该记录来自哪次群组扇出；直发分享该字段为 NULL。
// idx_share_dedup 唯一索引是防重复分享的最终依据，服务层的存在性
// 预检查只是为了给调用方一个友好的错误而不是裸的约束冲突。
type FileShare struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SharedByUserID  uint64  `gorm:"not null;index;uniqueIndex:idx_share_dedup" json:"shared_by_user_id"`
	SharedToUserID  uint64  `gorm:"not null;index;uniqueIndex:idx_share_dedup" json:"shared_to_user_id"`
	FileName        string  `gorm:"type:varchar(255);not null;uniqueIndex:idx_share_dedup" json:"file_name"`
	RecipientType   string  `gorm:"type:varchar(8);not null;uniqueIndex:idx_share_dedup" json:"recipient_type"`
	SharedToGroupID *uint64 `gorm:"index" json:"shared_to_group_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定 GORM 使用的表名
func (FileShare) TableName() string {
	return "file_shares"
}

// IsDirect 判断该记录是否为用户直发分享
func (fs *FileShare) IsDirect() bool {
	return fs.RecipientType == RecipientUser
}
