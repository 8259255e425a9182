package sharing

import (
	"context"
	"errors"
	"fmt"

	"github.com/pedrhcorreia/cloudshare/internal/models"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SharingService 定义了文件分享目录需要实现的接口
// 它是非所有者获得读取权限的唯一通道
type SharingService interface {
	// ShareFileToUser 把文件直发分享给另一个用户
	ShareFileToUser(ctx context.Context, sharedByUserID, sharedToUserID uint64, fileName string) (*models.FileShare, error)
	// ShareFileToGroup 把文件分享给群组：按当前成员快照展开，每个成员一条记录
	ShareFileToGroup(ctx context.Context, sharedByUserID, groupID uint64, fileName string) ([]models.FileShare, error)
	// UnshareFile 撤销一条分享记录
	UnshareFile(ctx context.Context, ownerID, fileShareID uint64) error
	// ListSharedByUser 列出用户发出的所有分享
	ListSharedByUser(ctx context.Context, userID uint64) ([]models.FileShare, error)
	// ListSharedToUser 列出用户收到的所有分享
	ListSharedToUser(ctx context.Context, userID uint64) ([]models.FileShare, error)
	// IsFileSharedWithUser 检查所有者是否把指定文件分享给了指定用户
	IsFileSharedWithUser(ctx context.Context, ownerID, userID uint64, fileName string) (bool, error)
}

type sharingService struct {
	shareRepo  repositories.FileShareRepository
	userRepo   repositories.UserRepository
	groupRepo  repositories.GroupRepository
	memberRepo repositories.GroupMemberRepository
	tm         repositories.TransactionManager
}

var _ SharingService = (*sharingService)(nil)

// NewSharingService 创建一个新的 SharingService 实例
func NewSharingService(
	shareRepo repositories.FileShareRepository,
	userRepo repositories.UserRepository,
	groupRepo repositories.GroupRepository,
	memberRepo repositories.GroupMemberRepository,
	tm repositories.TransactionManager,
) SharingService {
	return &sharingService{
		shareRepo:  shareRepo,
		userRepo:   userRepo,
		groupRepo:  groupRepo,
		memberRepo: memberRepo,
		tm:         tm,
	}
}

// ShareFileToUser 处理用户直发分享
func (s *sharingService) ShareFileToUser(ctx context.Context, sharedByUserID, sharedToUserID uint64, fileName string) (*models.FileShare, error) {
	// 1. 分享双方都必须是存在的用户
	if err := s.requireUser(sharedByUserID); err != nil {
		return nil, err
	}
	if err := s.requireUser(sharedToUserID); err != nil {
		return nil, err
	}

	// 2. 预检查重复分享，给调用方友好的错误；唯一索引才是最终防线
	exists, err := s.shareRepo.ExistsDirectShare(sharedByUserID, sharedToUserID, fileName)
	if err != nil {
		return nil, fmt.Errorf("检查现有分享记录失败: %w", err)
	}
	if exists {
		logger.Warn("ShareFileToUser: 重复的直发分享",
			zap.Uint64("sharedBy", sharedByUserID),
			zap.Uint64("sharedTo", sharedToUserID),
			zap.String("fileName", fileName))
		return nil, xerr.ErrShareAlreadyExists
	}

	share := &models.FileShare{
		SharedByUserID: sharedByUserID,
		SharedToUserID: sharedToUserID,
		FileName:       fileName,
		RecipientType:  models.RecipientUser,
	}
	if err := s.shareRepo.Create(share); err != nil {
		// 并发窗口内撞上唯一约束，归一化为重复分享错误
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, xerr.ErrShareAlreadyExists
		}
		logger.Error("ShareFileToUser: 创建分享记录失败", zap.Error(err))
		return nil, fmt.Errorf("创建分享记录失败: %w", err)
	}

	logger.Info("ShareFileToUser: 分享成功",
		zap.Uint64("shareID", share.ID),
		zap.Uint64("sharedBy", sharedByUserID),
		zap.Uint64("sharedTo", sharedToUserID),
		zap.String("fileName", fileName))
	return share, nil
}

// ShareFileToGroup 处理群组扇出分享
// 成员集合在调用时刻解析一次，之后的成员变动不会追加或回收分享
func (s *sharingService) ShareFileToGroup(ctx context.Context, sharedByUserID, groupID uint64, fileName string) ([]models.FileShare, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, fmt.Errorf("查询群组失败: %w", err)
	}
	if group == nil {
		return nil, xerr.ErrGroupNotFound
	}

	members, err := s.memberRepo.FindUsersByGroupID(groupID)
	if err != nil {
		return nil, fmt.Errorf("查询群组成员失败: %w", err)
	}
	if len(members) == 0 {
		// 空群组无法接收分享
		return nil, xerr.ErrMembersNotFound
	}

	gid := groupID
	shares := make([]*models.FileShare, 0, len(members))
	for _, member := range members {
		shares = append(shares, &models.FileShare{
			SharedByUserID:  sharedByUserID,
			SharedToUserID:  member.ID,
			FileName:        fileName,
			RecipientType:   models.RecipientGroup,
			SharedToGroupID: &gid,
		})
	}

	// 扇出写入必须整体成功或整体失败，不允许留下半截结果
	err = s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.shareRepo.WithTx(tx).CreateBatch(shares)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, xerr.ErrShareAlreadyExists
		}
		logger.Error("ShareFileToGroup: 批量创建分享记录失败",
			zap.Uint64("groupID", groupID), zap.Error(err))
		return nil, fmt.Errorf("群组分享失败: %w", err)
	}

	result := make([]models.FileShare, 0, len(shares))
	for _, share := range shares {
		result = append(result, *share)
	}
	logger.Info("ShareFileToGroup: 分享成功",
		zap.Uint64("sharedBy", sharedByUserID),
		zap.Uint64("groupID", groupID),
		zap.String("fileName", fileName),
		zap.Int("memberCount", len(result)))
	return result, nil
}

// UnshareFile 撤销一条分享记录，只有分享的发起者可以撤销
func (s *sharingService) UnshareFile(ctx context.Context, ownerID, fileShareID uint64) error {
	share, err := s.shareRepo.FindByID(fileShareID)
	if err != nil {
		return fmt.Errorf("查询分享记录失败: %w", err)
	}
	if share == nil {
		return xerr.ErrShareNotFound
	}
	if share.SharedByUserID != ownerID {
		return fmt.Errorf("%w: 只有分享者本人可以撤销分享", xerr.ErrPermissionDenied)
	}

	if err := s.shareRepo.Delete(fileShareID); err != nil {
		logger.Error("UnshareFile: 删除分享记录失败", zap.Uint64("shareID", fileShareID), zap.Error(err))
		return fmt.Errorf("撤销分享失败: %w", err)
	}

	logger.Info("UnshareFile: 分享已撤销", zap.Uint64("shareID", fileShareID), zap.Uint64("ownerID", ownerID))
	return nil
}

// ListSharedByUser 列出用户发出的所有分享；没有记录返回空列表而不是错误
func (s *sharingService) ListSharedByUser(ctx context.Context, userID uint64) ([]models.FileShare, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	return s.shareRepo.FindBySharedByUserID(userID)
}

// ListSharedToUser 列出用户收到的所有分享；没有记录返回空列表而不是错误
func (s *sharingService) ListSharedToUser(ctx context.Context, userID uint64) ([]models.FileShare, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	return s.shareRepo.FindBySharedToUserID(userID)
}

// IsFileSharedWithUser 供下载路径在所有权校验失败后回退查询
// 扫描所有者发出的分享，按文件名与接收者ID匹配（群组扇出记录同样命中）
func (s *sharingService) IsFileSharedWithUser(ctx context.Context, ownerID, userID uint64, fileName string) (bool, error) {
	shares, err := s.shareRepo.FindBySharedByUserID(ownerID)
	if err != nil {
		return false, fmt.Errorf("查询分享记录失败: %w", err)
	}
	for _, share := range shares {
		if share.FileName == fileName && share.SharedToUserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *sharingService) requireUser(userID uint64) error {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: ID %d", xerr.ErrUserNotFound, userID)
	}
	return nil
}
