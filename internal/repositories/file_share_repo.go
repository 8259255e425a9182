package repositories

import (
	"errors"
	"fmt"

	"github.com/pedrhcorreia/cloudshare/internal/models"
	"gorm.io/gorm"
)

type FileShareRepository interface {
	Create(share *models.FileShare) error
	// CreateBatch 一次插入多条分享记录，配合事务使用保证扇出原子性
	CreateBatch(shares []*models.FileShare) error
	FindByID(fileShareID uint64) (*models.FileShare, error)
	FindBySharedByUserID(userID uint64) ([]models.FileShare, error)
	FindBySharedToUserID(userID uint64) ([]models.FileShare, error)
	ExistsDirectShare(sharedByUserID, sharedToUserID uint64, fileName string) (bool, error)
	Delete(fileShareID uint64) error
	DeleteByOwnerAndFileName(ownerID uint64, fileName string) error
	DeleteByUser(userID uint64) error
	DeleteByGroupID(groupID uint64) error
	WithTx(tx *gorm.DB) FileShareRepository
}

type fileShareRepository struct {
	db *gorm.DB
}

var _ FileShareRepository = (*fileShareRepository)(nil)

// NewFileShareRepository 创建新的fileShareRepository实例
func NewFileShareRepository(db *gorm.DB) FileShareRepository {
	return &fileShareRepository{db: db}
}

func (r *fileShareRepository) WithTx(tx *gorm.DB) FileShareRepository {
	if tx == nil {
		return r
	}
	return &fileShareRepository{db: tx}
}

// 创建新的数据库记录
func (r *fileShareRepository) Create(share *models.FileShare) error {
	return r.db.Create(share).Error
}

func (r *fileShareRepository) CreateBatch(shares []*models.FileShare) error {
	if len(shares) == 0 {
		return nil
	}
	return r.db.Create(shares).Error
}

func (r *fileShareRepository) FindByID(fileShareID uint64) (*models.FileShare, error) {
	var share models.FileShare
	err := r.db.Where("id = ?", fileShareID).First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询分享记录失败: %w", err)
	}
	return &share, nil
}

// 查找特定用户发出的所有分享记录
func (r *fileShareRepository) FindBySharedByUserID(userID uint64) ([]models.FileShare, error) {
	var shares []models.FileShare
	err := r.db.Where("shared_by_user_id = ?", userID).Order("created_at desc").Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户发出的分享失败: %w", err)
	}
	return shares, nil
}

// 查找分享给特定用户的所有记录（含群组扇出产生的记录）
func (r *fileShareRepository) FindBySharedToUserID(userID uint64) ([]models.FileShare, error) {
	var shares []models.FileShare
	err := r.db.Where("shared_to_user_id = ?", userID).Order("created_at desc").Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户收到的分享失败: %w", err)
	}
	return shares, nil
}

// 检查 (分享者, 接收者, 文件名) 三元组是否已存在直发分享
func (r *fileShareRepository) ExistsDirectShare(sharedByUserID, sharedToUserID uint64, fileName string) (bool, error) {
	var count int64
	err := r.db.Model(&models.FileShare{}).
		Where("shared_by_user_id = ? AND shared_to_user_id = ? AND file_name = ? AND recipient_type = ?",
			sharedByUserID, sharedToUserID, fileName, models.RecipientUser).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("检查分享记录失败: %w", err)
	}
	return count > 0, nil
}

func (r *fileShareRepository) Delete(fileShareID uint64) error {
	return r.db.Delete(&models.FileShare{}, fileShareID).Error
}

// 删除某个所有者针对某个文件的全部分享记录（对象被删除时调用）
func (r *fileShareRepository) DeleteByOwnerAndFileName(ownerID uint64, fileName string) error {
	return r.db.Where("shared_by_user_id = ? AND file_name = ?", ownerID, fileName).
		Delete(&models.FileShare{}).Error
}

// 删除某用户作为分享者或接收者的全部记录（用户注销时调用）
func (r *fileShareRepository) DeleteByUser(userID uint64) error {
	return r.db.Where("shared_by_user_id = ? OR shared_to_user_id = ?", userID, userID).
		Delete(&models.FileShare{}).Error
}

// 删除某个群组扇出产生的全部记录（群组被删除时调用）
func (r *fileShareRepository) DeleteByGroupID(groupID uint64) error {
	return r.db.Where("shared_to_group_id = ?", groupID).Delete(&models.FileShare{}).Error
}
