package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pedrhcorreia/cloudshare/internal/models"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/services/sharing"
	"go.uber.org/zap"
)

type FileShareHandler struct {
	sharingService sharing.SharingService
}

func NewFileShareHandler(sharingService sharing.SharingService) *FileShareHandler {
	return &FileShareHandler{sharingService: sharingService}
}

type CreateFileShareRequest struct {
	// RecipientType 取值 "user" 或 "group"
	RecipientType string `json:"recipient_type" binding:"required,oneof=user group"`
	RecipientID   uint64 `json:"recipient_id" binding:"required"`
	FileName      string `json:"filename" binding:"required"`
}

type DeleteFileShareRequest struct {
	FileShareID uint64 `json:"file_share_id" binding:"required"`
}

// CreateFileShare handles sharing a file to a user or a group.
// @Summary 创建文件分享
// @Description 把文件分享给指定用户，或分享给群组（对当前成员逐一展开）
// @Tags 分享
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param request body CreateFileShareRequest true "分享信息"
// @Success 200 {object} xerr.Response "分享成功"
// @Failure 404 {object} xerr.Response "用户或群组不存在、群组无成员"
// @Failure 409 {object} xerr.Response "分享已存在"
// @Router /api/v1/user/{id}/fileshare [post]
func (h *FileShareHandler) CreateFileShare(c *gin.Context) {
	ownerID, ok := guardPathOwner(c)
	if !ok {
		return
	}

	var req CreateFileShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	var (
		shares []models.FileShare
		err    error
	)
	switch req.RecipientType {
	case models.RecipientUser:
		var share *models.FileShare
		share, err = h.sharingService.ShareFileToUser(c.Request.Context(), ownerID, req.RecipientID, req.FileName)
		if err == nil {
			shares = []models.FileShare{*share}
		}
	case models.RecipientGroup:
		shares, err = h.sharingService.ShareFileToGroup(c.Request.Context(), ownerID, req.RecipientID, req.FileName)
	}
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrGroupNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.GroupNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrMembersNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.MembersNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrShareAlreadyExists) {
			xerr.Error(c, http.StatusConflict, xerr.ShareAlreadyExistsCode, err.Error())
		} else {
			logger.Error("CreateFileShare: 创建分享失败",
				zap.Uint64("ownerID", ownerID),
				zap.String("recipientType", req.RecipientType),
				zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "创建分享失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "分享成功", gin.H{
		"shares": shares,
	})
}

// ListSharedByUser handles listing shares the user has created.
// @Summary 列出用户发出的分享
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} xerr.Response "分享列表"
// @Router /api/v1/user/{id}/fileshare [get]
func (h *FileShareHandler) ListSharedByUser(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	shares, err := h.sharingService.ListSharedByUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())
		} else {
			logger.Error("ListSharedByUser: 获取分享列表失败", zap.Uint64("userID", userID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取分享列表失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "获取分享列表成功", gin.H{
		"shares": shares,
	})
}

// ListSharedToUser handles listing shares the user has received.
// @Summary 列出用户收到的分享
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} xerr.Response "分享列表"
// @Router /api/v1/user/{id}/fileshare/received [get]
func (h *FileShareHandler) ListSharedToUser(c *gin.Context) {
	userID, ok := guardPathOwner(c)
	if !ok {
		return
	}

	shares, err := h.sharingService.ListSharedToUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())
		} else {
			logger.Error("ListSharedToUser: 获取收到的分享失败", zap.Uint64("userID", userID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "获取收到的分享失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "获取收到的分享成功", gin.H{
		"shares": shares,
	})
}

// DeleteFileShare handles revoking a share.
// @Summary 撤销文件分享
// @Tags 分享
// @Accept json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param request body DeleteFileShareRequest true "分享记录ID"
// @Success 200 {object} xerr.Response "撤销成功"
// @Failure 403 {object} xerr.Response "只有分享者本人可以撤销"
// @Failure 404 {object} xerr.Response "分享记录不存在"
// @Router /api/v1/user/{id}/fileshare [delete]
func (h *FileShareHandler) DeleteFileShare(c *gin.Context) {
	ownerID, ok := guardPathOwner(c)
	if !ok {
		return
	}

	var req DeleteFileShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	if err := h.sharingService.UnshareFile(c.Request.Context(), ownerID, req.FileShareID); err != nil {
		if errors.Is(err, xerr.ErrShareNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.ShareNotFoundCode, err.Error())
		} else if errors.Is(err, xerr.ErrPermissionDenied) {
			xerr.Error(c, http.StatusForbidden, xerr.PermissionDeniedCode, err.Error())
		} else {
			logger.Error("DeleteFileShare: 撤销分享失败", zap.Uint64("shareID", req.FileShareID), zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "撤销分享失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "撤销分享成功", nil)
}
