package admin

import (
	"context"
	"fmt"

	"github.com/pedrhcorreia/cloudshare/internal/config"
	"github.com/pedrhcorreia/cloudshare/internal/models"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/storage"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService interface {
	FindByID(ctx context.Context, userID uint64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// RemoveUser 删除用户及其全部关联数据
	RemoveUser(ctx context.Context, userID uint64) error
}

type userService struct {
	userRepo   repositories.UserRepository
	groupRepo  repositories.GroupRepository
	memberRepo repositories.GroupMemberRepository
	shareRepo  repositories.FileShareRepository
	tm         repositories.TransactionManager
	ss         storage.StorageService
	cfg        *config.Config
}

var _ UserService = (*userService)(nil)

func NewUserService(
	userRepo repositories.UserRepository,
	groupRepo repositories.GroupRepository,
	memberRepo repositories.GroupMemberRepository,
	shareRepo repositories.FileShareRepository,
	tm repositories.TransactionManager,
	ss storage.StorageService,
	cfg *config.Config,
) UserService {
	return &userService{
		userRepo:   userRepo,
		groupRepo:  groupRepo,
		memberRepo: memberRepo,
		shareRepo:  shareRepo,
		tm:         tm,
		ss:         ss,
		cfg:        cfg,
	}
}

func (s *userService) FindByID(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return nil, xerr.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListUsers()
}

// RemoveUser 删除用户
// 完整性规则由应用层显式执行而不是依赖 ORM 级联：
// 先删该用户发出与收到的分享、群组成员关系、其创建的群组（连同群组扇出
// 的分享和成员记录），最后删用户行，全部在一个事务内完成。
func (s *userService) RemoveUser(ctx context.Context, userID uint64) error {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return xerr.ErrUserNotFound
	}

	err = s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		shareRepo := s.shareRepo.WithTx(tx)
		memberRepo := s.memberRepo.WithTx(tx)
		groupRepo := s.groupRepo.WithTx(tx)

		if err := shareRepo.DeleteByUser(userID); err != nil {
			return fmt.Errorf("清理用户分享记录失败: %w", err)
		}
		if err := memberRepo.DeleteByUserID(userID); err != nil {
			return fmt.Errorf("清理用户群组成员关系失败: %w", err)
		}

		groups, err := groupRepo.FindByCreatorID(userID)
		if err != nil {
			return err
		}
		for _, group := range groups {
			if err := shareRepo.DeleteByGroupID(group.ID); err != nil {
				return fmt.Errorf("清理群组分享记录失败: %w", err)
			}
			if err := memberRepo.DeleteByGroupID(group.ID); err != nil {
				return fmt.Errorf("清理群组成员失败: %w", err)
			}
			if err := groupRepo.Delete(group.ID); err != nil {
				return fmt.Errorf("删除群组失败: %w", err)
			}
		}

		return s.userRepo.WithTx(tx).DeleteUser(userID)
	})
	if err != nil {
		logger.Error("RemoveUser: 删除用户失败", zap.Uint64("userID", userID), zap.Error(err))
		return err
	}

	// 存储桶清理是尽力而为：失败只记日志，不回滚已删除的账号
	bucket := storage.UserBucketName(userID, s.cfg.Anonymous.BucketSuffix)
	if exists, err := s.ss.IsBucketExist(ctx, bucket); err == nil && exists {
		objects, err := s.ss.ListObjects(ctx, bucket)
		if err == nil {
			for _, obj := range objects {
				if err := s.ss.RemoveObject(ctx, bucket, obj.Key); err != nil {
					logger.Warn("RemoveUser: 删除对象失败", zap.String("bucket", bucket), zap.String("key", obj.Key), zap.Error(err))
				}
			}
		}
		if err := s.ss.RemoveBucket(ctx, bucket); err != nil {
			logger.Warn("RemoveUser: 删除存储桶失败", zap.String("bucket", bucket), zap.Error(err))
		}
	}

	logger.Info("RemoveUser: 用户及关联数据已删除", zap.Uint64("userID", userID))
	return nil
}
