package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode  = 40000 // 无效的请求参数
	MalformedTokenCode = 40001 // 匿名令牌结构不合法，无法解析

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	SessionInvalidCode     = 40101 // 会话 Token 无效或过期
	InvalidCredentialsCode = 40102 // 用户名或密码错误

	// --- 权限错误系列 (403xx) ---
	ForbiddenCode        = 40300 // 通用无权限
	PermissionDeniedCode = 40301 // 身份与资源所有者不匹配
	TokenIntegrityCode   = 40302 // 匿名令牌签名校验失败
	TokenExpiredCode     = 40303 // 匿名令牌已过期

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode        = 40400 // 通用资源未找到
	UserNotFoundCode    = 40401 // 用户不存在
	GroupNotFoundCode   = 40402 // 群组不存在
	ShareNotFoundCode   = 40403 // 分享记录不存在
	ObjectNotFoundCode  = 40404 // 对象在存储桶中不存在
	MembersNotFoundCode = 40405 // 群组没有任何成员可供分享

	// --- 业务逻辑冲突系列 (409xx) ---
	UserAlreadyExistsCode   = 40900 // 用户名已存在
	ShareAlreadyExistsCode  = 40901 // 分享记录已存在
	GroupAlreadyExistsCode  = 40902 // 群组已存在
	MemberAlreadyExistsCode = 40903 // 用户已是群组成员

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	StorageErrorCode        = 50002 // 存储服务操作失败（如MinIO）
)
