package models

import "time"

// Group 对应 groups 表
// 群组名在同一创建者下唯一；创建者拥有管理权但不作为成员存储
type Group struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"type:varchar(64);not null;uniqueIndex:idx_creator_name" json:"name"`
	CreatorID uint64 `gorm:"not null;index;uniqueIndex:idx_creator_name" json:"creator_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定 GORM 使用的表名
func (Group) TableName() string {
	return "groups"
}

// GroupMember 对应 group_members 表
// (user_id, group_id) 组合唯一：同一用户在一个群组中最多出现一次
type GroupMember struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  uint64 `gorm:"not null;uniqueIndex:idx_group_user" json:"user_id"`
	GroupID uint64 `gorm:"not null;index;uniqueIndex:idx_group_user" json:"group_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定 GORM 使用的表名
func (GroupMember) TableName() string {
	return "group_members"
}
