package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/pedrhcorreia/cloudshare/internal/models"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/cache"
	"github.com/pedrhcorreia/cloudshare/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const userCacheTTL = 10 * time.Minute

// cachedUserRepository 给 UserRepository 套一层 Redis 读穿透缓存
// 匿名访问路径每次都要把所有者ID解析成用户名，是用户查询的热点
type cachedUserRepository struct {
	inner UserRepository
	cache cache.Cache
}

var _ UserRepository = (*cachedUserRepository)(nil)

func NewCachedUserRepository(inner UserRepository, c cache.Cache) UserRepository {
	return &cachedUserRepository{inner: inner, cache: c}
}

func (r *cachedUserRepository) WithTx(tx *gorm.DB) UserRepository {
	// 事务内的读写绕过缓存，直接走底层仓库
	return r.inner.WithTx(tx)
}

func (r *cachedUserRepository) CreateUser(user *models.User) error {
	return r.inner.CreateUser(user)
}

func (r *cachedUserRepository) GetUserByID(id uint64) (*models.User, error) {
	ctx := context.Background()
	key := cache.GenerateUserIDKey(id)

	var cached models.User
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		// 缓存故障不阻塞请求，降级为直查数据库
		logger.Warn("用户缓存读取失败，回退数据库", zap.Uint64("userID", id), zap.Error(err))
	}

	user, err := r.inner.GetUserByID(id)
	if err != nil || user == nil {
		return user, err
	}

	if err := r.cache.Set(ctx, key, user, userCacheTTL); err != nil {
		logger.Warn("用户缓存写入失败", zap.Uint64("userID", id), zap.Error(err))
	}
	return user, nil
}

func (r *cachedUserRepository) GetUserByUsername(username string) (*models.User, error) {
	return r.inner.GetUserByUsername(username)
}

func (r *cachedUserRepository) ListUsers() ([]models.User, error) {
	return r.inner.ListUsers()
}

func (r *cachedUserRepository) DeleteUser(id uint64) error {
	if err := r.inner.DeleteUser(id); err != nil {
		return err
	}
	if err := r.cache.Del(context.Background(), cache.GenerateUserIDKey(id)); err != nil {
		logger.Warn("用户缓存失效失败", zap.Uint64("userID", id), zap.Error(err))
	}
	return nil
}
