package anonymous

import (
	"context"
	"fmt"
	"time"

	"github.com/pedrhcorreia/cloudshare/internal/config"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/anonlink"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/storage"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/repositories"
	"go.uber.org/zap"
)

// FileInfo 是匿名访问者能看到的全部元数据
type FileInfo struct {
	FileName string `json:"fileName"`
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
}

// AccessService 组合令牌编解码、对象存在性检查和用户查询，
// 对外提供无需账号的受限文件访问
type AccessService interface {
	// MintToken 为所有者的对象签发一个限时访问令牌
	MintToken(ctx context.Context, ownerID uint64, fileName string, lifetime time.Duration) (string, error)
	// GetFileInfo 根据令牌返回文件元数据
	GetFileInfo(ctx context.Context, token string) (*FileInfo, error)
	// DownloadFile 根据令牌返回文件内容读取器
	DownloadFile(ctx context.Context, token string) (storage.GetObjectResult, *anonlink.Claims, error)
	// PresignedDownloadURL 根据令牌生成限时预签名下载地址
	PresignedDownloadURL(ctx context.Context, token string) (string, error)
}

type accessService struct {
	codec    *anonlink.Codec
	ss       storage.StorageService
	userRepo repositories.UserRepository
	cfg      *config.Config
}

var _ AccessService = (*accessService)(nil)

// NewAccessService 创建一个新的 AccessService 实例
func NewAccessService(codec *anonlink.Codec, ss storage.StorageService, userRepo repositories.UserRepository, cfg *config.Config) AccessService {
	return &accessService{
		codec:    codec,
		ss:       ss,
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// MintToken 签发匿名访问令牌
// 过期时刻 = 当前时间 + 请求的有效期；对象必须真实存在才允许签发
func (s *accessService) MintToken(ctx context.Context, ownerID uint64, fileName string, lifetime time.Duration) (string, error) {
	bucket := storage.UserBucketName(ownerID, s.cfg.Anonymous.BucketSuffix)
	exists, err := s.ss.ObjectExists(ctx, bucket, fileName)
	if err != nil {
		return "", fmt.Errorf("检查对象存在性失败: %w", err)
	}
	if !exists {
		return "", xerr.ErrObjectNotFound
	}

	expiration := time.Now().Add(lifetime).Unix()
	token, err := s.codec.Encode(expiration, ownerID, fileName)
	if err != nil {
		return "", fmt.Errorf("签发匿名访问令牌失败: %w", err)
	}

	logger.Info("MintToken: 匿名访问令牌签发成功",
		zap.Uint64("ownerID", ownerID),
		zap.String("fileName", fileName),
		zap.Int64("expiration", expiration))
	return token, nil
}

// GetFileInfo 校验令牌后返回文件元数据和所有者的展示名
func (s *accessService) GetFileInfo(ctx context.Context, token string) (*FileInfo, error) {
	claims, bucket, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(claims.SharedByUserID)
	if err != nil {
		return nil, fmt.Errorf("查询文件所有者失败: %w", err)
	}
	if user == nil {
		// 令牌有效但所有者账号已注销
		return nil, xerr.ErrUserNotFound
	}

	logger.Info("GetFileInfo: 匿名访问成功",
		zap.String("fileName", claims.FileName),
		zap.String("bucket", bucket))
	return &FileInfo{
		FileName: claims.FileName,
		UserID:   claims.SharedByUserID,
		Username: user.Username,
	}, nil
}

// DownloadFile 校验令牌后返回对象内容读取器
func (s *accessService) DownloadFile(ctx context.Context, token string) (storage.GetObjectResult, *anonlink.Claims, error) {
	claims, bucket, err := s.verify(ctx, token)
	if err != nil {
		return storage.GetObjectResult{}, nil, err
	}

	result, err := s.ss.GetObject(ctx, bucket, claims.FileName)
	if err != nil {
		logger.Error("DownloadFile: 读取对象失败",
			zap.String("bucket", bucket),
			zap.String("fileName", claims.FileName),
			zap.Error(err))
		return storage.GetObjectResult{}, nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	return result, claims, nil
}

// PresignedDownloadURL 校验令牌后生成预签名下载地址
// 预签名地址的有效期不超过令牌本身的剩余有效期
func (s *accessService) PresignedDownloadURL(ctx context.Context, token string) (string, error) {
	claims, bucket, err := s.verify(ctx, token)
	if err != nil {
		return "", err
	}

	remaining := time.Until(time.Unix(claims.Expiration, 0))
	url, err := s.ss.PreSignGetObjectURL(ctx, bucket, claims.FileName, remaining)
	if err != nil {
		return "", fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	return url, nil
}

// verify 解码并校验令牌，然后确认对象仍然存在于所有者的存储桶中
func (s *accessService) verify(ctx context.Context, token string) (*anonlink.Claims, string, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		logger.Warn("匿名访问令牌校验失败", zap.Error(err))
		return nil, "", err
	}

	bucket := storage.UserBucketName(claims.SharedByUserID, s.cfg.Anonymous.BucketSuffix)
	exists, err := s.ss.ObjectExists(ctx, bucket, claims.FileName)
	if err != nil {
		return nil, "", fmt.Errorf("检查对象存在性失败: %w", err)
	}
	if !exists {
		logger.Warn("匿名访问的对象已不存在",
			zap.String("bucket", bucket),
			zap.String("fileName", claims.FileName))
		return nil, "", xerr.ErrObjectNotFound
	}
	return claims, bucket, nil
}
