package anonymous

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/pedrhcorreia/cloudshare/internal/config"
	"github.com/pedrhcorreia/cloudshare/internal/models"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/anonlink"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/storage"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeStorage 内存对象存储，键为 bucket/object
type fakeStorage struct {
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) put(bucket, object string, data []byte) {
	s.objects[bucket+"/"+object] = data
}

func (s *fakeStorage) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (storage.PutObjectResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return storage.PutObjectResult{}, err
	}
	s.put(bucketName, objectName, data)
	return storage.PutObjectResult{Bucket: bucketName, Key: objectName, Size: int64(len(data))}, nil
}

func (s *fakeStorage) GetObject(ctx context.Context, bucketName, objectName string) (storage.GetObjectResult, error) {
	data, ok := s.objects[bucketName+"/"+objectName]
	if !ok {
		return storage.GetObjectResult{}, xerr.ErrObjectNotFound
	}
	return storage.GetObjectResult{
		Reader:   io.NopCloser(bytes.NewReader(data)),
		Size:     int64(len(data)),
		MimeType: "application/octet-stream",
	}, nil
}

func (s *fakeStorage) ObjectExists(ctx context.Context, bucketName, objectName string) (bool, error) {
	_, ok := s.objects[bucketName+"/"+objectName]
	return ok, nil
}

func (s *fakeStorage) ListObjects(ctx context.Context, bucketName string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (s *fakeStorage) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	delete(s.objects, bucketName+"/"+objectName)
	return nil
}

func (s *fakeStorage) IsBucketExist(ctx context.Context, bucketName string) (bool, error) {
	return true, nil
}

func (s *fakeStorage) MakeBucket(ctx context.Context, bucketName string) error { return nil }

func (s *fakeStorage) RemoveBucket(ctx context.Context, bucketName string) error { return nil }

func (s *fakeStorage) PreSignGetObjectURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	return "http://minio.local/" + bucketName + "/" + objectName, nil
}

var _ storage.StorageService = (*fakeStorage)(nil)

type fakeUserRepo struct {
	users map[uint64]*models.User
}

func (r *fakeUserRepo) CreateUser(user *models.User) error { return nil }

func (r *fakeUserRepo) GetUserByUsername(username string) (*models.User, error) { return nil, nil }

func (r *fakeUserRepo) GetUserByID(id uint64) (*models.User, error) { return r.users[id], nil }

func (r *fakeUserRepo) ListUsers() ([]models.User, error) { return nil, nil }

func (r *fakeUserRepo) DeleteUser(id uint64) error { return nil }

func (r *fakeUserRepo) WithTx(tx *gorm.DB) repositories.UserRepository { return r }

func testConfig() *config.Config {
	return &config.Config{
		Anonymous: config.AnonymousConfig{
			SecretKey:    "test-secret",
			BucketSuffix: "-bucket",
		},
	}
}

func newTestService() (AccessService, *fakeStorage, *fakeUserRepo) {
	ss := newFakeStorage()
	userRepo := &fakeUserRepo{users: map[uint64]*models.User{
		42: {ID: 42, Username: "alice"},
	}}
	codec := anonlink.NewCodec("test-secret")
	svc := NewAccessService(codec, ss, userRepo, testConfig())
	return svc, ss, userRepo
}

func TestMintAndGetFileInfo(t *testing.T) {
	svc, ss, _ := newTestService()
	ctx := context.Background()
	ss.put("42-bucket", "report.pdf", []byte("content"))

	token, err := svc.MintToken(ctx, 42, "report.pdf", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	info, err := svc.GetFileInfo(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", info.FileName)
	assert.Equal(t, uint64(42), info.UserID)
	assert.Equal(t, "alice", info.Username)
}

func TestMintTokenObjectMissing(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.MintToken(context.Background(), 42, "ghost.pdf", time.Hour)
	assert.ErrorIs(t, err, xerr.ErrObjectNotFound)
}

func TestDownloadFile(t *testing.T) {
	svc, ss, _ := newTestService()
	ctx := context.Background()
	ss.put("42-bucket", "report.pdf", []byte("hello world"))

	token, err := svc.MintToken(ctx, 42, "report.pdf", time.Hour)
	require.NoError(t, err)

	result, claims, err := svc.DownloadFile(ctx, token)
	require.NoError(t, err)
	defer result.Reader.Close()

	data, err := io.ReadAll(result.Reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)
	assert.Equal(t, "report.pdf", claims.FileName)
}

func TestAccessAfterObjectDeleted(t *testing.T) {
	// 令牌有效但对象已被删除，访问返回对象不存在
	svc, ss, _ := newTestService()
	ctx := context.Background()
	ss.put("42-bucket", "report.pdf", []byte("content"))

	token, err := svc.MintToken(ctx, 42, "report.pdf", time.Hour)
	require.NoError(t, err)

	require.NoError(t, ss.RemoveObject(ctx, "42-bucket", "report.pdf"))

	_, err = svc.GetFileInfo(ctx, token)
	assert.ErrorIs(t, err, xerr.ErrObjectNotFound)

	_, _, err = svc.DownloadFile(ctx, token)
	assert.ErrorIs(t, err, xerr.ErrObjectNotFound)
}

func TestAccessOwnerDeleted(t *testing.T) {
	// 所有者账号已注销时元数据查询失败
	svc, ss, userRepo := newTestService()
	ctx := context.Background()
	ss.put("42-bucket", "report.pdf", []byte("content"))

	token, err := svc.MintToken(ctx, 42, "report.pdf", time.Hour)
	require.NoError(t, err)

	delete(userRepo.users, 42)
	_, err = svc.GetFileInfo(ctx, token)
	assert.ErrorIs(t, err, xerr.ErrUserNotFound)
}

func TestAccessWithTamperedToken(t *testing.T) {
	svc, ss, _ := newTestService()
	ctx := context.Background()
	ss.put("42-bucket", "report.pdf", []byte("content"))

	token, err := svc.MintToken(ctx, 42, "report.pdf", time.Hour)
	require.NoError(t, err)

	// 用另一把密钥重新签发同样的声明
	otherCodec := anonlink.NewCodec("other-secret")
	forged, err := otherCodec.Encode(time.Now().Add(time.Hour).Unix(), 42, "report.pdf")
	require.NoError(t, err)
	require.NotEqual(t, token, forged)

	_, err = svc.GetFileInfo(ctx, forged)
	assert.ErrorIs(t, err, anonlink.ErrInvalidSignature)
}

func TestPresignedDownloadURL(t *testing.T) {
	svc, ss, _ := newTestService()
	ctx := context.Background()
	ss.put("42-bucket", "report.pdf", []byte("content"))

	token, err := svc.MintToken(ctx, 42, "report.pdf", time.Hour)
	require.NoError(t, err)

	url, err := svc.PresignedDownloadURL(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "http://minio.local/42-bucket/report.pdf", url)
}
