package setup

import (
	"fmt"

	"github.com/pedrhcorreia/cloudshare/internal/config"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/storage"
)

// InitMinIOStorage 初始化 MinIO 存储服务
// 存储桶按用户惰性创建（首次上传时），这里只建立客户端连接
func InitMinIOStorage(cfg *config.Config) (storage.StorageService, error) {
	minioSvc, err := storage.NewMinIOStorageService(&cfg.MinIO)
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 存储服务失败: %w", err)
	}
	logger.Info("MinIO 存储服务已初始化")
	return minioSvc, nil
}
