package xerr

import "errors"

var (
	// 通用错误
	ErrInternalServer = errors.New("服务器内部错误")
	ErrInvalidParams  = errors.New("无效的请求参数")

	// 认证与授权错误
	ErrUnauthorized       = errors.New("用户未授权")
	ErrInvalidCredentials = errors.New("用户名或密码不正确")
	ErrPermissionDenied   = errors.New("您没有操作此资源的权限")

	// 资源未找到错误
	ErrUserNotFound    = errors.New("用户不存在")
	ErrGroupNotFound   = errors.New("群组不存在")
	ErrShareNotFound   = errors.New("分享记录不存在")
	ErrObjectNotFound  = errors.New("文件不存在")
	ErrMembersNotFound = errors.New("群组没有任何成员")

	// 业务逻辑冲突
	ErrUserAlreadyExists   = errors.New("该用户名已被注册")
	ErrShareAlreadyExists  = errors.New("该文件已分享给该用户")
	ErrGroupAlreadyExists  = errors.New("同名群组已存在")
	ErrMemberAlreadyExists = errors.New("该用户已是群组成员")
	ErrCreatorAsMember     = errors.New("群组创建者不能被添加为群组成员")

	// 数据库与外部服务错误
	ErrDatabaseError = errors.New("数据库操作失败")
	ErrStorageError  = errors.New("存储服务操作失败")
)
