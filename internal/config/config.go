package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Anonymous AnonymousConfig `mapstructure:"anonymous"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// AnonymousConfig 匿名分享链接配置
// SecretKey 是服务端签发/校验匿名访问令牌的对称密钥，绝不能下发给客户端
// BucketSuffix 用于从用户ID推导该用户的存储桶名，例如 "42" + "-bucket"
type AnonymousConfig struct {
	SecretKey    string `mapstructure:"secret_key"`
	BucketSuffix string `mapstructure:"bucket_suffix"`
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

var AppConfig *Config // 全局应用配置实例

// LoadConfig 加载配置
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config") // 配置文件名 (不带扩展名)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/cloudshare/") // 生产环境常见路径

	// 读取环境变量，例如 CLOUDSHARE_ANONYMOUS_SECRET_KEY 对应 anonymous.secret_key
	viper.SetEnvPrefix("CLOUDSHARE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("jwt.expires_in", time.Hour)
	viper.SetDefault("jwt.issuer", "cloudshare")
	viper.SetDefault("anonymous.bucket_suffix", "-bucket")
	viper.SetDefault("log.output_path", "logs/app.log")
	viper.SetDefault("log.error_path", "logs/error.log")
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到不是致命错误，可以依赖环境变量
			log.Println("Warning: config file not found, using environment variables or default values.")
		} else {
			log.Printf("Fatal error reading config file: %s \n", err)
			return nil, err
		}
	}

	AppConfig = &Config{}
	if err := viper.Unmarshal(AppConfig); err != nil {
		log.Printf("Fatal error unmarshaling config: %s \n", err)
		return nil, err
	}

	// 匿名令牌密钥必须由运维提供，拒绝使用空密钥启动
	if AppConfig.Anonymous.SecretKey == "" {
		return nil, errors.New("anonymous.secret_key 未配置，无法签发匿名分享令牌")
	}
	if AppConfig.JWT.SecretKey == "" {
		return nil, errors.New("jwt.secret_key 未配置")
	}

	log.Println("Configuration loaded successfully with Viper.")
	return AppConfig, nil
}
