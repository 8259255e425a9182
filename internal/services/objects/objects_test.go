package objects

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/pedrhcorreia/cloudshare/internal/config"
	"github.com/pedrhcorreia/cloudshare/internal/models"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/storage"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/repositories"
	"github.com/pedrhcorreia/cloudshare/internal/services/sharing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStorage struct {
	buckets map[string]map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{buckets: make(map[string]map[string][]byte)}
}

func (s *fakeStorage) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (storage.PutObjectResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return storage.PutObjectResult{}, err
	}
	if s.buckets[bucketName] == nil {
		s.buckets[bucketName] = make(map[string][]byte)
	}
	s.buckets[bucketName][objectName] = data
	return storage.PutObjectResult{Bucket: bucketName, Key: objectName, Size: int64(len(data))}, nil
}

func (s *fakeStorage) GetObject(ctx context.Context, bucketName, objectName string) (storage.GetObjectResult, error) {
	data, ok := s.buckets[bucketName][objectName]
	if !ok {
		return storage.GetObjectResult{}, xerr.ErrObjectNotFound
	}
	return storage.GetObjectResult{
		Reader:   io.NopCloser(bytes.NewReader(data)),
		Size:     int64(len(data)),
		MimeType: "text/plain",
	}, nil
}

func (s *fakeStorage) ObjectExists(ctx context.Context, bucketName, objectName string) (bool, error) {
	_, ok := s.buckets[bucketName][objectName]
	return ok, nil
}

func (s *fakeStorage) ListObjects(ctx context.Context, bucketName string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, data := range s.buckets[bucketName] {
		out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
	}
	return out, nil
}

func (s *fakeStorage) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	delete(s.buckets[bucketName], objectName)
	return nil
}

func (s *fakeStorage) IsBucketExist(ctx context.Context, bucketName string) (bool, error) {
	_, ok := s.buckets[bucketName]
	return ok, nil
}

func (s *fakeStorage) MakeBucket(ctx context.Context, bucketName string) error {
	s.buckets[bucketName] = make(map[string][]byte)
	return nil
}

func (s *fakeStorage) RemoveBucket(ctx context.Context, bucketName string) error {
	delete(s.buckets, bucketName)
	return nil
}

func (s *fakeStorage) PreSignGetObjectURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	return "http://minio.local/" + bucketName + "/" + objectName, nil
}

var _ storage.StorageService = (*fakeStorage)(nil)

// fakeSharingService 只实现下载回退用到的查询
type fakeSharingService struct {
	shared map[string]bool // "ownerID/userID/fileName"
}

func shareKey(ownerID, userID uint64, fileName string) string {
	return fmt.Sprintf("%d/%d/%s", ownerID, userID, fileName)
}

func (s *fakeSharingService) ShareFileToUser(ctx context.Context, sharedByUserID, sharedToUserID uint64, fileName string) (*models.FileShare, error) {
	s.shared[shareKey(sharedByUserID, sharedToUserID, fileName)] = true
	return &models.FileShare{}, nil
}

func (s *fakeSharingService) ShareFileToGroup(ctx context.Context, sharedByUserID, groupID uint64, fileName string) ([]models.FileShare, error) {
	return nil, nil
}

func (s *fakeSharingService) UnshareFile(ctx context.Context, ownerID, fileShareID uint64) error {
	return nil
}

func (s *fakeSharingService) ListSharedByUser(ctx context.Context, userID uint64) ([]models.FileShare, error) {
	return nil, nil
}

func (s *fakeSharingService) ListSharedToUser(ctx context.Context, userID uint64) ([]models.FileShare, error) {
	return nil, nil
}

func (s *fakeSharingService) IsFileSharedWithUser(ctx context.Context, ownerID, userID uint64, fileName string) (bool, error) {
	return s.shared[shareKey(ownerID, userID, fileName)], nil
}

var _ sharing.SharingService = (*fakeSharingService)(nil)

type fakeShareRepo struct {
	deletedKeys []string
}

func (r *fakeShareRepo) Create(share *models.FileShare) error         { return nil }
func (r *fakeShareRepo) CreateBatch(shares []*models.FileShare) error { return nil }
func (r *fakeShareRepo) FindByID(fileShareID uint64) (*models.FileShare, error) {
	return nil, nil
}
func (r *fakeShareRepo) FindBySharedByUserID(userID uint64) ([]models.FileShare, error) {
	return nil, nil
}
func (r *fakeShareRepo) FindBySharedToUserID(userID uint64) ([]models.FileShare, error) {
	return nil, nil
}
func (r *fakeShareRepo) ExistsDirectShare(sharedByUserID, sharedToUserID uint64, fileName string) (bool, error) {
	return false, nil
}
func (r *fakeShareRepo) Delete(fileShareID uint64) error { return nil }
func (r *fakeShareRepo) DeleteByOwnerAndFileName(ownerID uint64, fileName string) error {
	r.deletedKeys = append(r.deletedKeys, fileName)
	return nil
}
func (r *fakeShareRepo) DeleteByUser(userID uint64) error                    { return nil }
func (r *fakeShareRepo) DeleteByGroupID(groupID uint64) error                { return nil }
func (r *fakeShareRepo) WithTx(tx *gorm.DB) repositories.FileShareRepository { return r }

func newTestService() (ObjectService, *fakeStorage, *fakeSharingService, *fakeShareRepo) {
	ss := newFakeStorage()
	shareSvc := &fakeSharingService{shared: make(map[string]bool)}
	shareRepo := &fakeShareRepo{}
	cfg := &config.Config{
		Anonymous: config.AnonymousConfig{BucketSuffix: "-bucket"},
	}
	return NewObjectService(ss, shareSvc, shareRepo, cfg), ss, shareSvc, shareRepo
}

func TestUploadCreatesBucket(t *testing.T) {
	svc, ss, _, _ := newTestService()
	ctx := context.Background()

	result, err := svc.Upload(ctx, 1, "notes.txt", bytes.NewReader([]byte("hello")), 5, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "1-bucket", result.Bucket)
	assert.Equal(t, "notes.txt", result.Key)
	assert.Equal(t, int64(5), result.Size)

	exists, err := ss.IsBucketExist(ctx, "1-bucket")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListEmptyBeforeBucketExists(t *testing.T) {
	svc, _, _, _ := newTestService()

	objs, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestDownloadByOwner(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Upload(ctx, 1, "notes.txt", bytes.NewReader([]byte("hello")), 5, "text/plain")
	require.NoError(t, err)

	result, err := svc.Download(ctx, 1, 1, "notes.txt")
	require.NoError(t, err)
	defer result.Reader.Close()

	data, err := io.ReadAll(result.Reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestDownloadByNonOwnerRequiresShare(t *testing.T) {
	svc, _, shareSvc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Upload(ctx, 1, "notes.txt", bytes.NewReader([]byte("hello")), 5, "text/plain")
	require.NoError(t, err)

	// 未分享时拒绝
	_, err = svc.Download(ctx, 1, 2, "notes.txt")
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)

	// 分享后放行
	_, err = shareSvc.ShareFileToUser(ctx, 1, 2, "notes.txt")
	require.NoError(t, err)
	result, err := svc.Download(ctx, 1, 2, "notes.txt")
	require.NoError(t, err)
	result.Reader.Close()
}

func TestDownloadMissingObject(t *testing.T) {
	svc, ss, _, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, ss.MakeBucket(ctx, "1-bucket"))

	_, err := svc.Download(ctx, 1, 1, "ghost.txt")
	assert.ErrorIs(t, err, xerr.ErrObjectNotFound)
}

func TestDeleteCleansShares(t *testing.T) {
	svc, ss, _, shareRepo := newTestService()
	ctx := context.Background()

	_, err := svc.Upload(ctx, 1, "notes.txt", bytes.NewReader([]byte("hello")), 5, "text/plain")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, "notes.txt"))

	exists, err := ss.ObjectExists(ctx, "1-bucket", "notes.txt")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, []string{"notes.txt"}, shareRepo.deletedKeys)

	err = svc.Delete(ctx, 1, "notes.txt")
	assert.ErrorIs(t, err, xerr.ErrObjectNotFound)
}
