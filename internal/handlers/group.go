package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/utils"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/services/admin"
	"go.uber.org/zap"
)

type GroupHandler struct {
	groupService admin.GroupService
}

func NewGroupHandler(groupService admin.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

type CreateGroupRequest struct {
	Name string `json:"name" binding:"required,min=1,max=128"`
}

type UpdateGroupRequest struct {
	Name string `json:"name" binding:"required,min=1,max=128"`
}

type MemberRequest struct {
	UserID uint64 `json:"user_id" binding:"required"`
}

// groupIDParam 解析路径中的群组ID
func groupIDParam(c *gin.Context) (uint64, bool) {
	idStr := c.Param("group_id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "群组ID格式无效")
		return 0, false
	}
	return id, true
}

// guardPathOwner 校验路径中的用户和会话主体是同一个人
func guardPathOwner(c *gin.Context) (uint64, bool) {
	ownerID, ok := userIDParam(c)
	if !ok {
		return 0, false
	}
	subject, ok := utils.GetSubjectFromContext(c)
	if !ok {
		return 0, false
	}
	if err := utils.CheckAuthorization(ownerID, subject); err != nil {
		xerr.Error(c, http.StatusForbidden, xerr.PermissionDeniedCode, err.Error())
		return 0, false
	}
	return ownerID, true
}

// CreateGroup handles group creation.
// @Summary 创建群组
// @Tags 群组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param request body CreateGroupRequest true "群组信息"
// @Success 200 {object} xerr.Response "创建成功"
// @Failure 409 {object} xerr.Response "群组名已存在"
// @Router /api/v1/user/{id}/group [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	ownerID, ok := guardPathOwner(c)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), ownerID, req.Name)
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrGroupAlreadyExists) {
			xerr.Error(c, http.StatusConflict, xerr.GroupAlreadyExistsCode, err.Error())
		} else {
			logger.Error("CreateGroup: 创建群组失败", zap.Uint64("ownerID", ownerID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "创建群组失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "创建群组成功", gin.H{
		"group": group,
	})
}

// ListGroups handles listing groups created by a user.
// @Summary 列出用户创建的群组
// @Tags 群组
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} xerr.Response "群组列表"
// @Router /api/v1/user/{id}/group [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	groups, err := h.groupService.GetGroupsOfUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())
		} else {
			logger.Error("ListGroups: 获取群组列表失败", zap.Uint64("userID", userID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取群组列表失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "获取群组列表成功", gin.H{
		"groups": groups,
	})
}

// UpdateGroup handles renaming a group.
// @Summary 修改群组名
// @Tags 群组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param group_id path int true "群组ID"
// @Param request body UpdateGroupRequest true "新群组名"
// @Success 200 {object} xerr.Response "修改成功"
// @Failure 404 {object} xerr.Response "群组不存在"
// @Router /api/v1/user/{id}/group/{group_id} [put]
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	if _, ok := guardPathOwner(c); !ok {
		return
	}
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	group, err := h.groupService.UpdateGroupName(c.Request.Context(), groupID, req.Name)
	if err != nil {
		if errors.Is(err, xerr.ErrGroupNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.GroupNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrGroupAlreadyExists) {
			xerr.Error(c, http.StatusConflict, xerr.GroupAlreadyExistsCode, err.Error())
		} else {
			logger.Error("UpdateGroup: 修改群组名失败", zap.Uint64("groupID", groupID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "修改群组名失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "修改群组名成功", gin.H{
		"group": group,
	})
}

// DeleteGroup handles group deletion.
// @Summary 删除群组
// @Description 删除群组及其成员关系和扇出分享记录
// @Tags 群组
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param group_id path int true "群组ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 404 {object} xerr.Response "群组不存在"
// @Router /api/v1/user/{id}/group/{group_id} [delete]
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	if _, ok := guardPathOwner(c); !ok {
		return
	}
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	if err := h.groupService.RemoveGroup(c.Request.Context(), groupID); err != nil {
		if errors.Is(err, xerr.ErrGroupNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.GroupNotFoundCode, err.Error())
		} else {
			logger.Error("DeleteGroup: 删除群组失败", zap.Uint64("groupID", groupID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "删除群组失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "删除群组成功", nil)
}

// AddMember handles adding a user to a group.
// @Summary 添加群组成员
// @Tags 群组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param group_id path int true "群组ID"
// @Param request body MemberRequest true "成员信息"
// @Success 200 {object} xerr.Response "添加成功"
// @Failure 400 {object} xerr.Response "创建者不能作为成员"
// @Failure 409 {object} xerr.Response "成员已存在"
// @Router /api/v1/user/{id}/group/{group_id}/member [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	if _, ok := guardPathOwner(c); !ok {
		return
	}
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	if err := h.groupService.AddMember(c.Request.Context(), groupID, req.UserID); err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrGroupNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.GroupNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrCreatorAsMember) {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		} else if errors.Is(err, xerr.ErrMemberAlreadyExists) {
			xerr.Error(c, http.StatusConflict, xerr.MemberAlreadyExistsCode, err.Error())
		} else {
			logger.Error("AddMember: 添加群组成员失败",
				zap.Uint64("groupID", groupID),
				zap.Uint64("memberID", req.UserID),
				zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "添加群组成员失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "添加群组成员成功", nil)
}

// RemoveMember handles removing a user from a group.
// @Summary 移除群组成员
// @Tags 群组
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param group_id path int true "群组ID"
// @Param member_id path int true "成员用户ID"
// @Success 200 {object} xerr.Response "移除成功"
// @Failure 404 {object} xerr.Response "群组或成员不存在"
// @Router /api/v1/user/{id}/group/{group_id}/member/{member_id} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	if _, ok := guardPathOwner(c); !ok {
		return
	}
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	memberID, err := strconv.ParseUint(c.Param("member_id"), 10, 64)
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "成员ID格式无效")
		return
	}

	if err := h.groupService.RemoveMember(c.Request.Context(), groupID, memberID); err != nil {
		if errors.Is(err, xerr.ErrGroupNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.GroupNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrUserNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())
		} else {
			logger.Error("RemoveMember: 移除群组成员失败",
				zap.Uint64("groupID", groupID),
				zap.Uint64("memberID", memberID),
				zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "移除群组成员失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "移除群组成员成功", nil)
}

// ListMembers handles listing members of a group.
// @Summary 列出群组成员
// @Tags 群组
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param group_id path int true "群组ID"
// @Success 200 {object} xerr.Response "成员列表"
// @Failure 404 {object} xerr.Response "群组不存在"
// @Router /api/v1/user/{id}/group/{group_id}/member [get]
func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	members, err := h.groupService.GetGroupMembers(c.Request.Context(), groupID)
	if err != nil {
		if errors.Is(err, xerr.ErrGroupNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.GroupNotFoundCode, err.Error())
		} else {
			logger.Error("ListMembers: 获取群组成员失败", zap.Uint64("groupID", groupID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取群组成员失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "获取群组成员成功", gin.H{
		"members": members,
	})
}
