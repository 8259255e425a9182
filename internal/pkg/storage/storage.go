package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// StorageService 定义了通用的对象存储操作接口
// 本系统把对象存储当作不透明的键值二进制仓库：每个用户一个存储桶，
// 对象键就是文件名，不存在目录层级。
type StorageService interface {
	// 上传对象到指定存储桶
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (PutObjectResult, error)
	// 从指定存储桶下载对象，返回一个读取器和对象信息
	GetObject(ctx context.Context, bucketName, objectName string) (GetObjectResult, error)
	// 检查对象是否存在
	ObjectExists(ctx context.Context, bucketName, objectName string) (bool, error)
	// 列出存储桶中的全部对象
	ListObjects(ctx context.Context, bucketName string) ([]ObjectInfo, error)
	// 从指定存储桶删除对象
	RemoveObject(ctx context.Context, bucketName, objectName string) error
	// 检查存储桶是否存在
	IsBucketExist(ctx context.Context, bucketName string) (bool, error)
	// 创建存储桶
	MakeBucket(ctx context.Context, bucketName string) error
	// 删除存储桶（须先清空）
	RemoveBucket(ctx context.Context, bucketName string) error
	// 为下载生成预签名URL，带 content-disposition 提示
	PreSignGetObjectURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error)
}

type PutObjectResult struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string // 对象哈希值
}

type GetObjectResult struct {
	Reader   io.ReadCloser // 文件内容读取器，需要在使用后关闭
	Size     int64
	MimeType string
}

type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"last_modified"`
}

// UserBucketName 从用户ID和配置的后缀推导该用户的存储桶名
func UserBucketName(userID uint64, suffix string) string {
	return fmt.Sprintf("%d%s", userID, suffix)
}
