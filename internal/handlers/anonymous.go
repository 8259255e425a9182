package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/anonlink"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/services/anonymous"
	"go.uber.org/zap"
)

type AnonymousHandler struct {
	accessService anonymous.AccessService
}

func NewAnonymousHandler(accessService anonymous.AccessService) *AnonymousHandler {
	return &AnonymousHandler{accessService: accessService}
}

type CreateAnonymousLinkRequest struct {
	ExpiresInSeconds int64 `json:"expires_in_seconds" binding:"required,min=1"`
}

// tokenQuery 提取并检查 token 查询参数
func tokenQuery(c *gin.Context) (string, bool) {
	token := c.Query("token")
	if token == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "token 不能为空")
		return "", false
	}
	return token, true
}

// writeTokenError 把令牌校验错误翻译成对应的HTTP响应
// 格式错误归为请求问题；签名或过期问题归为拒绝访问
func writeTokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, anonlink.ErrMalformedToken):
		xerr.Error(c, http.StatusBadRequest, xerr.MalformedTokenCode, err.Error())
	case errors.Is(err, anonlink.ErrInvalidSignature):
		xerr.Error(c, http.StatusForbidden, xerr.TokenIntegrityCode, err.Error())
	case errors.Is(err, anonlink.ErrTokenExpired):
		xerr.Error(c, http.StatusForbidden, xerr.TokenExpiredCode, err.Error())
	case errors.Is(err, xerr.ErrObjectNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.ObjectNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrUserNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.UserNotFoundCode, err.Error())
	default:
		logger.Error("匿名访问处理失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "匿名访问处理失败")
	}
}

// CreateAnonymousLink handles minting a time-limited anonymous access token.
// @Summary 创建匿名访问链接
// @Description 为指定对象签发限时匿名访问令牌，持有令牌者无需账号即可访问
// @Tags 匿名访问
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param key path string true "对象键"
// @Param request body CreateAnonymousLinkRequest true "有效期（秒）"
// @Success 200 {object} xerr.Response "令牌签发成功"
// @Failure 404 {object} xerr.Response "对象不存在"
// @Router /api/v1/user/{id}/object/{key}/anonymous-link [post]
func (h *AnonymousHandler) CreateAnonymousLink(c *gin.Context) {
	ownerID, ok := guardPathOwner(c)
	if !ok {
		return
	}
	key, ok := objectKeyParam(c)
	if !ok {
		return
	}

	var req CreateAnonymousLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	lifetime := time.Duration(req.ExpiresInSeconds) * time.Second
	token, err := h.accessService.MintToken(c.Request.Context(), ownerID, key, lifetime)
	if err != nil {
		if errors.Is(err, xerr.ErrObjectNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.ObjectNotFoundCode, err.Error())
		} else {
			logger.Error("CreateAnonymousLink: 签发令牌失败",
				zap.Uint64("ownerID", ownerID),
				zap.String("key", key),
				zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "签发匿名访问令牌失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "匿名访问令牌签发成功", gin.H{
		"token": token,
	})
}

// GetFileInfo handles anonymous metadata lookup by token.
// @Summary 查询匿名分享的文件信息
// @Description 根据令牌返回文件名和所有者信息，无需登录
// @Tags 匿名访问
// @Produce json
// @Param token query string true "匿名访问令牌"
// @Success 200 {object} xerr.Response "文件信息"
// @Failure 400 {object} xerr.Response "令牌格式错误"
// @Failure 403 {object} xerr.Response "令牌签名无效或已过期"
// @Failure 404 {object} xerr.Response "文件不存在"
// @Router /anonymous/info [get]
func (h *AnonymousHandler) GetFileInfo(c *gin.Context) {
	token, ok := tokenQuery(c)
	if !ok {
		return
	}

	info, err := h.accessService.GetFileInfo(c.Request.Context(), token)
	if err != nil {
		writeTokenError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "获取文件信息成功", gin.H{
		"file": info,
	})
}

// DownloadFile handles anonymous file download by token.
// @Summary 下载匿名分享的文件
// @Description 根据令牌下载文件内容，无需登录；带 redirect=true 时重定向到预签名URL
// @Tags 匿名访问
// @Produce octet-stream
// @Param token query string true "匿名访问令牌"
// @Param redirect query bool false "重定向到预签名URL而不是直接传输"
// @Success 200 {file} file "文件内容"
// @Failure 400 {object} xerr.Response "令牌格式错误"
// @Failure 403 {object} xerr.Response "令牌签名无效或已过期"
// @Failure 404 {object} xerr.Response "文件不存在"
// @Router /anonymous/download [get]
func (h *AnonymousHandler) DownloadFile(c *gin.Context) {
	token, ok := tokenQuery(c)
	if !ok {
		return
	}

	if c.Query("redirect") == "true" {
		presignedURL, err := h.accessService.PresignedDownloadURL(c.Request.Context(), token)
		if err != nil {
			writeTokenError(c, err)
			return
		}
		c.Redirect(http.StatusFound, presignedURL)
		return
	}

	result, claims, err := h.accessService.DownloadFile(c.Request.Context(), token)
	if err != nil {
		writeTokenError(c, err)
		return
	}
	defer result.Reader.Close()

	streamObject(c, claims.FileName, result.MimeType, result.Size, result.Reader)
}
