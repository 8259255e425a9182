package utils

import (
	"fmt"
	"strconv"

	"github.com/pedrhcorreia/cloudshare/internal/pkg/xerr"
)

// CheckAuthorization 是所有用户级资源操作共用的授权原语
// 已认证身份（会话主体，用户ID的字符串形式）必须与资源所有者ID一致，
// 不做任何委托或角色判断；非所有者的读取权限只能走分享记录查询。
func CheckAuthorization(resourceOwnerID uint64, authenticatedSubject string) error {
	if authenticatedSubject != strconv.FormatUint(resourceOwnerID, 10) {
		return fmt.Errorf("%w: 身份 '%s' 无权操作该资源", xerr.ErrPermissionDenied, authenticatedSubject)
	}
	return nil
}
