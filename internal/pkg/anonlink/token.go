package anonlink

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// 匿名访问令牌编解码器
// 令牌是无状态的能力凭证：base64(JSON载荷) + "." + base64(HMAC-SHA256签名)，
// 服务端不保存任何已签发令牌，过期时间是唯一的吊销手段。

var (
	// ErrMalformedToken 令牌结构不合法，无法解析
	ErrMalformedToken = errors.New("令牌格式不合法")
	// ErrInvalidSignature 签名校验失败，令牌被篡改或密钥不匹配
	ErrInvalidSignature = errors.New("令牌签名校验失败")
	// ErrTokenExpired 令牌已过期
	ErrTokenExpired = errors.New("令牌已过期")
)

// Claims 是令牌中携带的全部信息
// Expiration 为过期时刻的 epoch 秒（不是毫秒）
type Claims struct {
	Expiration     int64  `json:"expiration"`
	SharedByUserID uint64 `json:"sharedByUserId"`
	FileName       string `json:"fileName"`
}

// Codec 持有签名密钥，Encode/Decode 是纯计算，无任何 I/O，可并发使用
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec 创建令牌编解码器，secret 为服务端对称密钥
func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Encode 签发一个匿名访问令牌
// expiration: 过期时刻（epoch 秒）
// sharedByUserID: 文件所有者ID
// fileName: 所有者存储桶内的对象键
func (c *Codec) Encode(expiration int64, sharedByUserID uint64, fileName string) (string, error) {
	payload, err := json.Marshal(Claims{
		Expiration:     expiration,
		SharedByUserID: sharedByUserID,
		FileName:       fileName,
	})
	if err != nil {
		return "", fmt.Errorf("序列化令牌载荷失败: %w", err)
	}

	encodedPayload := base64.StdEncoding.EncodeToString(payload)
	signature := base64.StdEncoding.EncodeToString(c.sign(encodedPayload))
	return encodedPayload + "." + signature, nil
}

// Decode 解析并校验令牌：先验签，后验过期
// 三种失败模式互相区分：结构不合法 / 签名不匹配 / 已过期
func (c *Codec) Decode(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return nil, ErrMalformedToken
	}
	encodedPayload, encodedSignature := parts[0], parts[1]

	payload, err := base64.StdEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, ErrMalformedToken
	}

	signature, err := base64.StdEncoding.DecodeString(encodedSignature)
	if err != nil {
		// 签名段被破坏同样视作完整性失败，不能悄悄放过
		return nil, ErrInvalidSignature
	}

	// 常量时间比较，避免通过响应耗时猜测签名
	if !hmac.Equal(signature, c.sign(encodedPayload)) {
		return nil, ErrInvalidSignature
	}

	claims, err := parseClaims(payload)
	if err != nil {
		return nil, err
	}

	if claims.Expiration < c.now().Unix() {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// sign 计算 base64 载荷字符串（按 ASCII 字节）的 HMAC-SHA256
func (c *Codec) sign(encodedPayload string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encodedPayload))
	return mac.Sum(nil)
}

// parseClaims 解析 JSON 载荷
// 数字字段用 json.Number 承接后统一归一化成 int64/uint64，
// 无论序列化方写入的是紧凑整数还是带指数的宽松形式
func parseClaims(payload []byte) (*Claims, error) {
	var raw struct {
		Expiration     json.Number `json:"expiration"`
		SharedByUserID json.Number `json:"sharedByUserId"`
		FileName       string      `json:"fileName"`
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, ErrMalformedToken
	}

	expiration, err := numberToInt64(raw.Expiration)
	if err != nil {
		return nil, ErrMalformedToken
	}
	ownerID, err := numberToInt64(raw.SharedByUserID)
	if err != nil || ownerID < 0 {
		return nil, ErrMalformedToken
	}

	return &Claims{
		Expiration:     expiration,
		SharedByUserID: uint64(ownerID),
		FileName:       raw.FileName,
	}, nil
}

// numberToInt64 把 JSON 数字归一化成 int64
func numberToInt64(n json.Number) (int64, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
