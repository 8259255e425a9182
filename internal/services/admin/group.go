package admin

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

type GroupService interface {
	CreateGroup(ctx context.Context, creatorID uint64, name string) (*models.Group, error)
	UpdateGroupName(ctx context.Context, groupID uint64, newName string) (*models.Group, error)
	RemoveGroup(ctx context.Context, groupID uint64) error
	GetGroupsOfUser(ctx context.Context, userID uint64) ([]models.Group, error)
	AddMember(ctx context.Context, groupID, userID uint64) error
	RemoveMember(ctx context.Context, groupID, userID uint64) error
	GetGroupMembers(ctx context.Context, groupID uint64) ([]models.User, error)
}

type groupService struct {
	groupRepo  repositories.GroupRepository
	memberRepo repositories.GroupMemberRepository
	userRepo   repositories.UserRepository
	shareRepo  repositories.FileShareRepository
	tm         repositories.TransactionManager
}

var _ GroupService = (*groupService)(nil)

func NewGroupService(
	groupRepo repositories.GroupRepository,
	memberRepo repositories.GroupMemberRepository,
	userRepo repositories.UserRepository,
	shareRepo repositories.FileShareRepository,
	tm repositories.TransactionManager,
) GroupService {
	return &groupService{
		groupRepo:  groupRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		shareRepo:  shareRepo,
		tm:         tm,
	}
}

// CreateGroup 为用户创建群组，同一创建者下群组名唯一
func (s *groupService) CreateGroup(ctx context.Context, creatorID uint64, name string) (*models.Group, error) {
	creator, err := s.userRepo.GetUserByID(creatorID)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if creator == nil {
		return nil, xerr.ErrUserNotFound
	}

	exists, err := s.groupRepo.ExistsByCreatorIDAndName(creatorID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, xerr.ErrGroupAlreadyExists
	}

	group := &models.Group{Name: name, CreatorID: creatorID}
	if err := s.groupRepo.Create(group); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, xerr.ErrGroupAlreadyExists
		}
		return nil, fmt.Errorf("创建群组失败: %w", err)
	}

	logger.Info("CreateGroup: 群组创建成功",
		zap.Uint64("groupID", group.ID),
		zap.Uint64("creatorID", creatorID),
		zap.String("name", name))
	return group, nil
}

func (s *groupService) UpdateGroupName(ctx context.Context, groupID uint64, newName string) (*models.Group, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, xerr.ErrGroupNotFound
	}

	group.Name = newName
	if err := s.groupRepo.Update(group); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, xerr.ErrGroupAlreadyExists
		}
		return nil, fmt.Errorf("更新群组名失败: %w", err)
	}
	logger.Info("UpdateGroupName: 群组改名成功", zap.Uint64("groupID", groupID), zap.String("name", newName))
	return group, nil
}

// RemoveGroup 删除群组
// 依赖该群组的成员关系和扇出分享记录在同一事务内先行清理
func (s *groupService) RemoveGroup(ctx context.Context, groupID uint64) error {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return xerr.ErrGroupNotFound
	}

	err = s.tm.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.shareRepo.WithTx(tx).DeleteByGroupID(groupID); err != nil {
			return fmt.Errorf("清理群组分享记录失败: %w", err)
		}
		if err := s.memberRepo.WithTx(tx).DeleteByGroupID(groupID); err != nil {
			return fmt.Errorf("清理群组成员失败: %w", err)
		}
		return s.groupRepo.WithTx(tx).Delete(groupID)
	})
	if err != nil {
		logger.Error("RemoveGroup: 删除群组失败", zap.Uint64("groupID", groupID), zap.Error(err))
		return err
	}
	logger.Info("RemoveGroup: 群组已删除", zap.Uint64("groupID", groupID))
	return nil
}

func (s *groupService) GetGroupsOfUser(ctx context.Context, userID uint64) ([]models.Group, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return nil, xerr.ErrUserNotFound
	}
	return s.groupRepo.FindByCreatorID(userID)
}

// AddMember 把用户加入群组
// 两条硬性规则：创建者永远不能作为成员插入；同一用户最多出现一次
func (s *groupService) AddMember(ctx context.Context, groupID, userID uint64) error {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return xerr.ErrUserNotFound
	}

	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return xerr.ErrGroupNotFound
	}
	if group.CreatorID == userID {
		return xerr.ErrCreatorAsMember
	}

	exists, err := s.memberRepo.ExistsByGroupIDAndUserID(groupID, userID)
	if err != nil {
		return err
	}
	if exists {
		return xerr.ErrMemberAlreadyExists
	}

	if err := s.memberRepo.Create(&models.GroupMember{UserID: userID, GroupID: groupID}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return xerr.ErrMemberAlreadyExists
		}
		return fmt.Errorf("添加群组成员失败: %w", err)
	}
	logger.Info("AddMember: 成员已加入群组", zap.Uint64("groupID", groupID), zap.Uint64("userID", userID))
	return nil
}

func (s *groupService) RemoveMember(ctx context.Context, groupID, userID uint64) error {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return xerr.ErrGroupNotFound
	}

	affected, err := s.memberRepo.DeleteByGroupIDAndUserID(groupID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: 用户 %d 不是群组 %d 的成员", xerr.ErrUserNotFound, userID, groupID)
	}
	logger.Info("RemoveMember: 成员已移出群组", zap.Uint64("groupID", groupID), zap.Uint64("userID", userID))
	return nil
}

func (s *groupService) GetGroupMembers(ctx context.Context, groupID uint64) ([]models.User, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, xerr.ErrGroupNotFound
	}
	return s.memberRepo.FindUsersByGroupID(groupID)
}
