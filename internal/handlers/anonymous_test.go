package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pedrhcorreia/cloudshare/internal/config"
	"github.com/pedrhcorreia/cloudshare/internal/models"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/anonlink"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/storage"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
	"github.com/pedrhcorreia/cloudshare/internal/repositories"
	"github.com/pedrhcorreia/cloudshare/internal/services/anonymous"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memStorage struct {
	objects map[string][]byte
}

func (s *memStorage) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (storage.PutObjectResult, error) {
	data, _ := io.ReadAll(reader)
	s.objects[bucketName+"/"+objectName] = data
	return storage.PutObjectResult{Bucket: bucketName, Key: objectName, Size: int64(len(data))}, nil
}

func (s *memStorage) GetObject(ctx context.Context, bucketName, objectName string) (storage.GetObjectResult, error) {
	data, ok := s.objects[bucketName+"/"+objectName]
	if !ok {
		return storage.GetObjectResult{}, xerr.ErrObjectNotFound
	}
	return storage.GetObjectResult{
		Reader:   io.NopCloser(bytes.NewReader(data)),
		Size:     int64(len(data)),
		MimeType: "text/plain",
	}, nil
}

func (s *memStorage) ObjectExists(ctx context.Context, bucketName, objectName string) (bool, error) {
	_, ok := s.objects[bucketName+"/"+objectName]
	return ok, nil
}

func (s *memStorage) ListObjects(ctx context.Context, bucketName string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (s *memStorage) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	delete(s.objects, bucketName+"/"+objectName)
	return nil
}

func (s *memStorage) IsBucketExist(ctx context.Context, bucketName string) (bool, error) {
	return true, nil
}

func (s *memStorage) MakeBucket(ctx context.Context, bucketName string) error   { return nil }
func (s *memStorage) RemoveBucket(ctx context.Context, bucketName string) error { return nil }

func (s *memStorage) PreSignGetObjectURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	return "http://minio.local/" + bucketName + "/" + objectName, nil
}

type memUserRepo struct {
	users map[uint64]*models.User
}

func (r *memUserRepo) CreateUser(user *models.User) error                      { return nil }
func (r *memUserRepo) GetUserByUsername(username string) (*models.User, error) { return nil, nil }
func (r *memUserRepo) GetUserByID(id uint64) (*models.User, error)             { return r.users[id], nil }
func (r *memUserRepo) ListUsers() ([]models.User, error)                       { return nil, nil }
func (r *memUserRepo) DeleteUser(id uint64) error                              { return nil }
func (r *memUserRepo) WithTx(tx *gorm.DB) repositories.UserRepository          { return r }

const anonymousTestSecret = "handler-test-secret"

func newAnonymousTestRouter(t *testing.T) (*gin.Engine, *anonlink.Codec, *memStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ss := &memStorage{objects: make(map[string][]byte)}
	userRepo := &memUserRepo{users: map[uint64]*models.User{
		42: {ID: 42, Username: "alice"},
	}}
	cfg := &config.Config{
		Anonymous: config.AnonymousConfig{SecretKey: anonymousTestSecret, BucketSuffix: "-bucket"},
	}
	codec := anonlink.NewCodec(anonymousTestSecret)
	svc := anonymous.NewAccessService(codec, ss, userRepo, cfg)
	h := NewAnonymousHandler(svc)

	router := gin.New()
	router.GET("/anonymous/info", h.GetFileInfo)
	router.GET("/anonymous/download", h.DownloadFile)
	return router, codec, ss
}

func doRequest(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) xerr.Response {
	t.Helper()
	var resp xerr.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAnonymousInfo(t *testing.T) {
	router, codec, ss := newAnonymousTestRouter(t)
	ss.objects["42-bucket/report.pdf"] = []byte("content")

	token, err := codec.Encode(time.Now().Add(time.Hour).Unix(), 42, "report.pdf")
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/anonymous/info?token="+url.QueryEscape(token))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeEnvelope(t, w)
	assert.Equal(t, xerr.SuccessCode, resp.Code)

	data := resp.Data.(map[string]any)
	file := data["file"].(map[string]any)
	assert.Equal(t, "report.pdf", file["fileName"])
	assert.Equal(t, "alice", file["username"])
	assert.EqualValues(t, 42, file["userId"])
}

func TestAnonymousInfoMissingToken(t *testing.T) {
	router, _, _ := newAnonymousTestRouter(t)

	w := doRequest(router, http.MethodGet, "/anonymous/info")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, xerr.InvalidParamsCode, decodeEnvelope(t, w).Code)
}

func TestAnonymousInfoMalformedToken(t *testing.T) {
	router, _, _ := newAnonymousTestRouter(t)

	w := doRequest(router, http.MethodGet, "/anonymous/info?token=not-a-token")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, xerr.MalformedTokenCode, decodeEnvelope(t, w).Code)
}

func TestAnonymousInfoTamperedToken(t *testing.T) {
	router, _, ss := newAnonymousTestRouter(t)
	ss.objects["42-bucket/report.pdf"] = []byte("content")

	forged, err := anonlink.NewCodec("wrong-secret").Encode(time.Now().Add(time.Hour).Unix(), 42, "report.pdf")
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/anonymous/info?token="+url.QueryEscape(forged))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, xerr.TokenIntegrityCode, decodeEnvelope(t, w).Code)
}

func TestAnonymousInfoExpiredToken(t *testing.T) {
	router, codec, ss := newAnonymousTestRouter(t)
	ss.objects["42-bucket/report.pdf"] = []byte("content")

	token, err := codec.Encode(time.Now().Add(-time.Minute).Unix(), 42, "report.pdf")
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/anonymous/info?token="+url.QueryEscape(token))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, xerr.TokenExpiredCode, decodeEnvelope(t, w).Code)
}

func TestAnonymousInfoObjectGone(t *testing.T) {
	router, codec, _ := newAnonymousTestRouter(t)

	token, err := codec.Encode(time.Now().Add(time.Hour).Unix(), 42, "ghost.pdf")
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/anonymous/info?token="+url.QueryEscape(token))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, xerr.ObjectNotFoundCode, decodeEnvelope(t, w).Code)
}

func TestAnonymousDownload(t *testing.T) {
	router, codec, ss := newAnonymousTestRouter(t)
	ss.objects["42-bucket/report.pdf"] = []byte("hello world")

	token, err := codec.Encode(time.Now().Add(time.Hour).Unix(), 42, "report.pdf")
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/anonymous/download?token="+url.QueryEscape(token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello world", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report.pdf")
}

func TestAnonymousDownloadRedirect(t *testing.T) {
	router, codec, ss := newAnonymousTestRouter(t)
	ss.objects["42-bucket/report.pdf"] = []byte("hello world")

	token, err := codec.Encode(time.Now().Add(time.Hour).Unix(), 42, "report.pdf")
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/anonymous/download?redirect=true&token="+url.QueryEscape(token))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://minio.local/42-bucket/report.pdf", w.Header().Get("Location"))
}
