package objects

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pedrhcorreia/cloudshare/internal/config"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/storage"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/repositories"
	"github.com/pedrhcorreia/cloudshare/internal/services/sharing"
	"go.uber.org/zap"
)

// ObjectService 管理用户存储桶中的对象
// 读取权限有两条通道：对象所有者本人，或所有者通过分享目录授权的用户
type ObjectService interface {
	List(ctx context.Context, ownerID uint64) ([]storage.ObjectInfo, error)
	Upload(ctx context.Context, ownerID uint64, objectName string, reader io.Reader, size int64, contentType string) (storage.PutObjectResult, error)
	// Download 读取对象内容；callerID 与 ownerID 不同时走分享目录回退授权
	Download(ctx context.Context, ownerID, callerID uint64, objectName string) (storage.GetObjectResult, error)
	Delete(ctx context.Context, ownerID uint64, objectName string) error
	// PresignedURL 为所有者生成对象的限时预签名下载地址
	PresignedURL(ctx context.Context, ownerID uint64, objectName string, expiry time.Duration) (string, error)
}

type objectService struct {
	ss        storage.StorageService
	shareSvc  sharing.SharingService
	shareRepo repositories.FileShareRepository
	cfg       *config.Config
}

var _ ObjectService = (*objectService)(nil)

func NewObjectService(
	ss storage.StorageService,
	shareSvc sharing.SharingService,
	shareRepo repositories.FileShareRepository,
	cfg *config.Config,
) ObjectService {
	return &objectService{
		ss:        ss,
		shareSvc:  shareSvc,
		shareRepo: shareRepo,
		cfg:       cfg,
	}
}

func (s *objectService) bucket(ownerID uint64) string {
	return storage.UserBucketName(ownerID, s.cfg.Anonymous.BucketSuffix)
}

// List 列出用户存储桶中的全部对象；桶还未创建时返回空列表
func (s *objectService) List(ctx context.Context, ownerID uint64) ([]storage.ObjectInfo, error) {
	bucket := s.bucket(ownerID)
	exists, err := s.ss.IsBucketExist(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	if !exists {
		return []storage.ObjectInfo{}, nil
	}

	objects, err := s.ss.ListObjects(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	return objects, nil
}

// Upload 上传对象，首次上传时自动创建该用户的存储桶
func (s *objectService) Upload(ctx context.Context, ownerID uint64, objectName string, reader io.Reader, size int64, contentType string) (storage.PutObjectResult, error) {
	bucket := s.bucket(ownerID)
	exists, err := s.ss.IsBucketExist(ctx, bucket)
	if err != nil {
		return storage.PutObjectResult{}, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	if !exists {
		if err := s.ss.MakeBucket(ctx, bucket); err != nil {
			logger.Error("Upload: 创建存储桶失败", zap.String("bucket", bucket), zap.Error(err))
			return storage.PutObjectResult{}, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
		}
	}

	result, err := s.ss.PutObject(ctx, bucket, objectName, reader, size, contentType)
	if err != nil {
		logger.Error("Upload: 上传对象失败",
			zap.String("bucket", bucket),
			zap.String("objectName", objectName),
			zap.Error(err))
		return storage.PutObjectResult{}, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}

	logger.Info("Upload: 对象上传成功",
		zap.String("bucket", bucket),
		zap.String("objectName", objectName),
		zap.Int64("size", result.Size))
	return result, nil
}

// Download 读取对象内容
// 调用者不是所有者时回退到分享目录：只有被分享过该文件才放行
func (s *objectService) Download(ctx context.Context, ownerID, callerID uint64, objectName string) (storage.GetObjectResult, error) {
	if callerID != ownerID {
		shared, err := s.shareSvc.IsFileSharedWithUser(ctx, ownerID, callerID, objectName)
		if err != nil {
			return storage.GetObjectResult{}, err
		}
		if !shared {
			logger.Warn("Download: 非所有者且未被分享，拒绝访问",
				zap.Uint64("ownerID", ownerID),
				zap.Uint64("callerID", callerID),
				zap.String("objectName", objectName))
			return storage.GetObjectResult{}, fmt.Errorf("%w: 该文件未分享给当前用户", xerr.ErrPermissionDenied)
		}
	}

	bucket := s.bucket(ownerID)
	exists, err := s.ss.ObjectExists(ctx, bucket, objectName)
	if err != nil {
		return storage.GetObjectResult{}, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	if !exists {
		return storage.GetObjectResult{}, xerr.ErrObjectNotFound
	}

	result, err := s.ss.GetObject(ctx, bucket, objectName)
	if err != nil {
		logger.Error("Download: 读取对象失败",
			zap.String("bucket", bucket),
			zap.String("objectName", objectName),
			zap.Error(err))
		return storage.GetObjectResult{}, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	return result, nil
}

// Delete 删除对象并清理针对它的全部分享记录
func (s *objectService) Delete(ctx context.Context, ownerID uint64, objectName string) error {
	bucket := s.bucket(ownerID)
	exists, err := s.ss.ObjectExists(ctx, bucket, objectName)
	if err != nil {
		return fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	if !exists {
		return xerr.ErrObjectNotFound
	}

	if err := s.ss.RemoveObject(ctx, bucket, objectName); err != nil {
		logger.Error("Delete: 删除对象失败",
			zap.String("bucket", bucket),
			zap.String("objectName", objectName),
			zap.Error(err))
		return fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}

	// 对象没了，指向它的分享记录也随之失效
	if err := s.shareRepo.DeleteByOwnerAndFileName(ownerID, objectName); err != nil {
		logger.Warn("Delete: 清理分享记录失败",
			zap.Uint64("ownerID", ownerID),
			zap.String("objectName", objectName),
			zap.Error(err))
	}

	logger.Info("Delete: 对象已删除", zap.String("bucket", bucket), zap.String("objectName", objectName))
	return nil
}

func (s *objectService) PresignedURL(ctx context.Context, ownerID uint64, objectName string, expiry time.Duration) (string, error) {
	bucket := s.bucket(ownerID)
	exists, err := s.ss.ObjectExists(ctx, bucket, objectName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	if !exists {
		return "", xerr.ErrObjectNotFound
	}

	url, err := s.ss.PreSignGetObjectURL(ctx, bucket, objectName, expiry)
	if err != nil {
		return "", fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	return url, nil
}
