package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/utils"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/services/objects"
	"go.uber.org/zap"
)

type ObjectHandler struct {
	objectService objects.ObjectService
}

func NewObjectHandler(objectService objects.ObjectService) *ObjectHandler {
	return &ObjectHandler{objectService: objectService}
}

// 预签名下载链接的默认有效期
const defaultPresignExpiry = 15 * time.Minute

// objectKeyParam 解析路径中的对象键
func objectKeyParam(c *gin.Context) (string, bool) {
	key := c.Param("key")
	if key == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "对象键不能为空")
		return "", false
	}
	return key, true
}

// ListObjects handles listing all objects in a user's bucket.
// @Summary 列出用户的对象
// @Tags 对象
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} xerr.Response "对象列表"
// @Router /api/v1/user/{id}/object [get]
func (h *ObjectHandler) ListObjects(c *gin.Context) {
	ownerID, ok := guardPathOwner(c)
	if !ok {
		return
	}

	objs, err := h.objectService.List(c.Request.Context(), ownerID)
	if err != nil {
		logger.Error("ListObjects: 获取对象列表失败", zap.Uint64("ownerID", ownerID), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "获取对象列表失败")
		return
	}
	xerr.Success(c, http.StatusOK, "获取对象列表成功", gin.H{
		"objects": objs,
	})
}

// UploadObject handles uploading a file to the user's bucket.
// @Summary 上传对象
// @Description multipart 表单上传，字段名为 file，对象键取上传文件名
// @Tags 对象
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param file formData file true "文件内容"
// @Success 200 {object} xerr.Response "上传成功"
// @Router /api/v1/user/{id}/object [post]
func (h *ObjectHandler) UploadObject(c *gin.Context) {
	ownerID, ok := guardPathOwner(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "获取上传文件失败: "+err.Error())
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		logger.Error("UploadObject: 打开上传文件失败", zap.String("fileName", fileHeader.Filename), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "读取上传文件失败")
		return
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.objectService.Upload(c.Request.Context(), ownerID, fileHeader.Filename, src, fileHeader.Size, contentType)
	if err != nil {
		logger.Error("UploadObject: 上传对象失败",
			zap.Uint64("ownerID", ownerID),
			zap.String("fileName", fileHeader.Filename),
			zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "上传对象失败")
		return
	}
	xerr.Success(c, http.StatusOK, "上传成功", gin.H{
		"object": result,
	})
}

// DownloadObject handles downloading an object.
// @Summary 下载对象
// @Description 所有者直接下载；非所有者需要先被分享该文件。带 presign=true 时返回预签名URL
// @Tags 对象
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "所有者用户ID"
// @Param key path string true "对象键"
// @Param presign query bool false "返回预签名URL而不是文件内容"
// @Success 200 {file} file "文件内容"
// @Failure 403 {object} xerr.Response "文件未分享给当前用户"
// @Failure 404 {object} xerr.Response "对象不存在"
// @Router /api/v1/user/{id}/object/{key} [get]
func (h *ObjectHandler) DownloadObject(c *gin.Context) {
	ownerID, ok := userIDParam(c)
	if !ok {
		return
	}
	key, ok := objectKeyParam(c)
	if !ok {
		return
	}
	callerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	// 所有者可以选择拿预签名URL自己下载
	if c.Query("presign") == "true" && callerID == ownerID {
		presignedURL, err := h.objectService.PresignedURL(c.Request.Context(), ownerID, key, defaultPresignExpiry)
		if err != nil {
			if errors.Is(err, xerr.ErrObjectNotFound) {
				xerr.Error(c, http.StatusNotFound, xerr.ObjectNotFoundCode, err.Error())
			} else {
				logger.Error("DownloadObject: 生成预签名URL失败", zap.String("key", key), zap.Error(err))
				xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "获取文件下载链接失败")
			}
			return
		}
		xerr.Success(c, http.StatusOK, "获取下载链接成功", gin.H{
			"url": presignedURL,
		})
		return
	}

	result, err := h.objectService.Download(c.Request.Context(), ownerID, callerID, key)
	if err != nil {
		if errors.Is(err, xerr.ErrPermissionDenied) {
			xerr.Error(c, http.StatusForbidden, xerr.PermissionDeniedCode, err.Error())
		} else if errors.Is(err, xerr.ErrObjectNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.ObjectNotFoundCode, err.Error())
		} else {
			logger.Error("DownloadObject: 下载对象失败",
				zap.Uint64("ownerID", ownerID),
				zap.String("key", key),
				zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "下载对象失败")
		}
		return
	}
	defer result.Reader.Close()

	streamObject(c, key, result.MimeType, result.Size, result.Reader)
}

// DeleteObject handles deleting an object and its share records.
// @Summary 删除对象
// @Description 删除对象，同时清理指向它的全部分享记录
// @Tags 对象
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param key path string true "对象键"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 404 {object} xerr.Response "对象不存在"
// @Router /api/v1/user/{id}/object/{key} [delete]
func (h *ObjectHandler) DeleteObject(c *gin.Context) {
	ownerID, ok := guardPathOwner(c)
	if !ok {
		return
	}
	key, ok := objectKeyParam(c)
	if !ok {
		return
	}

	if err := h.objectService.Delete(c.Request.Context(), ownerID, key); err != nil {
		if errors.Is(err, xerr.ErrObjectNotFound) {
			xerr.Error(c, http.StatusNotFound, xerr.ObjectNotFoundCode, err.Error())
		} else {
			logger.Error("DeleteObject: 删除对象失败",
				zap.Uint64("ownerID", ownerID),
				zap.String("key", key),
				zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.StorageErrorCode, "删除对象失败")
		}
		return
	}
	xerr.Success(c, http.StatusOK, "删除成功", nil)
}

// streamObject 以附件形式把对象内容写给客户端
func streamObject(c *gin.Context, fileName, mimeType string, size int64, reader io.Reader) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	encodedFileName := url.PathEscape(fileName)
	contentDisposition := fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, encodedFileName, encodedFileName)

	c.Header("Content-Disposition", contentDisposition)
	c.Header("Content-Type", mimeType)
	if size > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", size))
	}

	if _, err := io.Copy(c.Writer, reader); err != nil {
		logger.Error("streamObject: 流式传输对象内容失败", zap.String("fileName", fileName), zap.Error(err))
	}
}
