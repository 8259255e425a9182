package repositories

import (
	"fmt"

	"github.com/pedrhcorreia/cloudshare/internal/models"
	"gorm.io/gorm"
)

type GroupMemberRepository interface {
	Create(member *models.GroupMember) error
	ExistsByGroupIDAndUserID(groupID, userID uint64) (bool, error)
	// FindUsersByGroupID 返回群组当前的成员用户（调用时刻的快照）
	FindUsersByGroupID(groupID uint64) ([]models.User, error)
	DeleteByGroupIDAndUserID(groupID, userID uint64) (int64, error)
	DeleteByGroupID(groupID uint64) error
	DeleteByUserID(userID uint64) error
	WithTx(tx *gorm.DB) GroupMemberRepository
}

type groupMemberRepository struct {
	db *gorm.DB
}

var _ GroupMemberRepository = (*groupMemberRepository)(nil)

// NewGroupMemberRepository 创建新的groupMemberRepository实例
func NewGroupMemberRepository(db *gorm.DB) GroupMemberRepository {
	return &groupMemberRepository{db: db}
}

func (r *groupMemberRepository) WithTx(tx *gorm.DB) GroupMemberRepository {
	if tx == nil {
		return r
	}
	return &groupMemberRepository{db: tx}
}

func (r *groupMemberRepository) Create(member *models.GroupMember) error {
	return r.db.Create(member).Error
}

func (r *groupMemberRepository) ExistsByGroupIDAndUserID(groupID, userID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("检查群组成员失败: %w", err)
	}
	return count > 0, nil
}

func (r *groupMemberRepository) FindUsersByGroupID(groupID uint64) ([]models.User, error) {
	var users []models.User
	err := r.db.Model(&models.User{}).
		Joins("JOIN group_members ON group_members.user_id = users.id").
		Where("group_members.group_id = ?", groupID).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("查询群组成员失败: %w", err)
	}
	return users, nil
}

func (r *groupMemberRepository) DeleteByGroupIDAndUserID(groupID, userID uint64) (int64, error) {
	result := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMember{})
	if result.Error != nil {
		return 0, fmt.Errorf("移除群组成员失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *groupMemberRepository) DeleteByGroupID(groupID uint64) error {
	return r.db.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error
}

func (r *groupMemberRepository) DeleteByUserID(userID uint64) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.GroupMember{}).Error
}
