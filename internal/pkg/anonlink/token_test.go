package anonlink

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedCodec(secret string, now time.Time) *Codec {
	c := NewCodec(secret)
	c.now = func() time.Time { return now }
	return c
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := fixedCodec("test-secret", now)

	expiration := now.Add(time.Hour).Unix()
	token, err := codec.Encode(expiration, 42, "报告.pdf")
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, expiration, claims.Expiration)
	assert.Equal(t, uint64(42), claims.SharedByUserID)
	assert.Equal(t, "报告.pdf", claims.FileName)
}

func TestTokenWireFormat(t *testing.T) {
	codec := fixedCodec("test-secret", time.Now())

	token, err := codec.Encode(1700000000, 7, "notes.txt")
	require.NoError(t, err)

	// 令牌必须是 base64载荷 + "." + base64签名 两段
	parts := strings.Split(token, ".")
	require.Len(t, parts, 2)

	payload, err := base64.StdEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	_, err = base64.StdEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	// 载荷是裸JSON，字段名固定
	var m map[string]any
	require.NoError(t, json.Unmarshal(payload, &m))
	assert.Contains(t, m, "expiration")
	assert.Contains(t, m, "sharedByUserId")
	assert.Contains(t, m, "fileName")
}

func TestDecodeTamperedPayload(t *testing.T) {
	now := time.Now()
	codec := fixedCodec("test-secret", now)

	token, err := codec.Encode(now.Add(time.Hour).Unix(), 1, "a.txt")
	require.NoError(t, err)

	// 改写载荷但保留原签名
	parts := strings.Split(token, ".")
	forged, err := json.Marshal(Claims{
		Expiration:     now.Add(time.Hour).Unix(),
		SharedByUserID: 2,
		FileName:       "a.txt",
	})
	require.NoError(t, err)
	tampered := base64.StdEncoding.EncodeToString(forged) + "." + parts[1]

	_, err = codec.Decode(tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeWrongSecret(t *testing.T) {
	now := time.Now()
	signer := fixedCodec("secret-a", now)
	verifier := fixedCodec("secret-b", now)

	token, err := signer.Encode(now.Add(time.Hour).Unix(), 1, "a.txt")
	require.NoError(t, err)

	_, err = verifier.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeExpired(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := fixedCodec("test-secret", issued)

	token, err := codec.Encode(issued.Add(time.Minute).Unix(), 1, "a.txt")
	require.NoError(t, err)

	// 时间拨到过期之后
	codec.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestExpiredTokenWithBadSignatureFailsIntegrityFirst(t *testing.T) {
	// 过期且被篡改的令牌必须先报签名错误，不能泄露过期信息
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := fixedCodec("test-secret", issued.Add(time.Hour))

	token, err := fixedCodec("other-secret", issued).Encode(issued.Add(time.Minute).Unix(), 1, "a.txt")
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodeMalformed(t *testing.T) {
	codec := fixedCodec("test-secret", time.Now())

	cases := []struct {
		name  string
		token string
	}{
		{"空字符串", ""},
		{"没有分隔符", "abcdef"},
		{"多余的分隔段", "a.b.c"},
		{"载荷不是base64", "!!!.c2ln"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Decode(tc.token)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestDecodeSignatureNotBase64(t *testing.T) {
	now := time.Now()
	codec := fixedCodec("test-secret", now)

	token, err := codec.Encode(now.Add(time.Hour).Unix(), 1, "a.txt")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	_, err = codec.Decode(parts[0] + ".%%%%")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDecodePayloadNotJSON(t *testing.T) {
	codec := fixedCodec("test-secret", time.Now())

	// 合法base64、签名正确，但载荷不是JSON
	encodedPayload := base64.StdEncoding.EncodeToString([]byte("not json"))
	signature := base64.StdEncoding.EncodeToString(codec.sign(encodedPayload))

	_, err := codec.Decode(encodedPayload + "." + signature)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestDecodeNumericNormalization(t *testing.T) {
	// 序列化方可能把数字写成带小数点或指数的形式，解码要能归一化
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := fixedCodec("test-secret", now)

	expiration := now.Add(time.Hour).Unix()
	payload := []byte(`{"expiration":` + strconv.FormatInt(expiration, 10) + `.0,"sharedByUserId":4.2e1,"fileName":"a.txt"}`)
	encodedPayload := base64.StdEncoding.EncodeToString(payload)
	signature := base64.StdEncoding.EncodeToString(codec.sign(encodedPayload))

	claims, err := codec.Decode(encodedPayload + "." + signature)
	require.NoError(t, err)
	assert.Equal(t, expiration, claims.Expiration)
	assert.Equal(t, uint64(42), claims.SharedByUserID)
}
