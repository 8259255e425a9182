package repositories

import (
	"errors"
	"fmt"

	"github.com/pedrhcorreia/cloudshare/internal/models"
	"gorm.io/gorm"
)

type GroupRepository interface {
	Create(group *models.Group) error
	FindByID(groupID uint64) (*models.Group, error)
	FindByCreatorID(creatorID uint64) ([]models.Group, error)
	ExistsByCreatorIDAndName(creatorID uint64, name string) (bool, error)
	Update(group *models.Group) error
	Delete(groupID uint64) error
	WithTx(tx *gorm.DB) GroupRepository
}

type groupRepository struct {
	db *gorm.DB
}

var _ GroupRepository = (*groupRepository)(nil)

// NewGroupRepository 创建新的groupRepository实例
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) WithTx(tx *gorm.DB) GroupRepository {
	if tx == nil {
		return r
	}
	return &groupRepository{db: tx}
}

// 创建新的数据库记录
func (r *groupRepository) Create(group *models.Group) error {
	return r.db.Create(group).Error
}

// 根据ID查找群组
func (r *groupRepository) FindByID(groupID uint64) (*models.Group, error) {
	var group models.Group
	err := r.db.Where("id = ?", groupID).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询群组失败: %w", err)
	}
	return &group, nil
}

// 查找某个用户创建的所有群组
func (r *groupRepository) FindByCreatorID(creatorID uint64) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Where("creator_id = ?", creatorID).Order("created_at desc").Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户群组列表失败: %w", err)
	}
	return groups, nil
}

// 检查同一创建者下是否已有同名群组
func (r *groupRepository) ExistsByCreatorIDAndName(creatorID uint64, name string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Group{}).
		Where("creator_id = ? AND name = ?", creatorID, name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("检查群组存在性失败: %w", err)
	}
	return count > 0, nil
}

// 更新数据库记录
func (r *groupRepository) Update(group *models.Group) error {
	return r.db.Save(group).Error
}

// 删除群组记录
func (r *groupRepository) Delete(groupID uint64) error {
	return r.db.Delete(&models.Group{}, groupID).Error
}
