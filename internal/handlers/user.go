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

type UserHandler struct {
	userService admin.UserService
}

func NewUserHandler(userService admin.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// userIDParam 解析路径中的用户ID
func userIDParam(c *gin.Context) (uint64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "用户ID格式无效")
		return 0, false
	}
	return id, true
}

// ListUsers handles listing all registered users.
// @Summary 列出所有用户
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response "用户列表"
// @Router /api/v1/user [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		logger.Error("ListUsers: 获取用户列表失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取用户列表失败")
		return
	}
	xerr.Success(c, http.StatusOK, "获取用户列表成功", gin.H{
		"users": users,
	})
}

// GetUser handles retrieving a single user by ID.
// @Summary 查询用户
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} xerr.Response "用户信息"
// @Failure 404 {object} xerr.Response "用户不存在"
// @Router /api/v1/user/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := h.userService.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())
		} else {
			logger.Error("GetUser: 查询用户失败", zap.Uint64("userID", userID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "查询用户失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "查询用户成功", gin.H{
		"user": user,
	})
}

// DeleteUser handles account deletion.
// @Summary 注销用户
// @Description 删除用户及其分享记录、群组和对象存储数据，只能注销本人账号
// @Tags 用户
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} xerr.Response "注销成功"
// @Failure 403 {object} xerr.Response "无权操作"
// @Failure 404 {object} xerr.Response "用户不存在"
// @Router /api/v1/user/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	subject, ok := utils.GetSubjectFromContext(c)
	if !ok {
		return
	}

	// 只有账号本人可以注销
	if err := utils.CheckAuthorization(userID, subject); err != nil {
		xerr.Error(c, http.StatusForbidden, xerr.PermissionDeniedCode, err.Error())
		return
	}

	if err := h.userService.RemoveUser(c.Request.Context(), userID); err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())
		} else {
			logger.Error("DeleteUser: 注销用户失败", zap.Uint64("userID", userID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "注销用户失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "注销成功", nil)
}
