package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/logging"
	"github.com/rushteam/prodrec/store"
)

// EnvPrefix 是环境变量前缀：PRODREC_RECOMMEND_COLD_START_TOP_N -> recommend.cold_start_top_n
const EnvPrefix = "PRODREC_"

// ConfigPathEnvVar 可以指定配置文件路径。
const ConfigPathEnvVar = EnvPrefix + "CONFIG"

// DefaultConfigPaths 按顺序查找，使用第一个存在的文件。
var DefaultConfigPaths = []string{
	"prodrec.yaml",
	"prodrec.yml",
}

// Settings 是进程级配置：默认值 → YAML 文件 → 环境变量，后者覆盖前者。
type Settings struct {
	Catalog   CatalogSettings   `koanf:"catalog"`
	Recommend RecommendSettings `koanf:"recommend"`
	Log       LogSettings       `koanf:"log"`
	Store     StoreSettings     `koanf:"store"`

	// Sessions 依次模拟的用户
	Sessions []string `koanf:"sessions" validate:"dive,required"`
}

type CatalogSettings struct {
	ProductsPath     string `koanf:"products_path" validate:"required"`
	InteractionsPath string `koanf:"interactions_path"`
}

type RecommendSettings struct {
	ColdStartTopN    int `koanf:"cold_start_top_n" validate:"gte=1"`
	PersonalizedTopN int `koanf:"personalized_top_n" validate:"gte=1"`

	// TagBoostNode 把 <= 0 当作未设置，这里要求显式正值
	TagBoost      float64 `koanf:"tag_boost" validate:"gt=0"`
	PreferredTags int     `koanf:"preferred_tags" validate:"gte=1"`

	// FilterExpr 是 CEL 保留条件，为空不过滤
	FilterExpr string `koanf:"filter_expr"`

	// 配置化 Pipeline 的 YAML 文件，为空使用内置链路
	ColdStartPipeline    string `koanf:"cold_start_pipeline"`
	PersonalizedPipeline string `koanf:"personalized_pipeline"`
}

type LogSettings struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

type StoreSettings struct {
	Backend   string `koanf:"backend" validate:"oneof=none memory redis"`
	RedisAddr string `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB   int    `koanf:"redis_db" validate:"gte=0"`
	KeyPrefix string `koanf:"key_prefix" validate:"required"`
}

// DefaultSettings 返回默认配置。
func DefaultSettings() *Settings {
	return &Settings{
		Catalog: CatalogSettings{
			ProductsPath:     "products.csv",
			InteractionsPath: "users.csv",
		},
		Recommend: RecommendSettings{
			ColdStartTopN:    5,
			PersonalizedTopN: 6,
			TagBoost:         5,
			PreferredTags:    3,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "console",
		},
		Store: StoreSettings{
			Backend:   store.BackendNone,
			RedisAddr: "localhost:6379",
			KeyPrefix: "prodrec:interactions",
		},
		Sessions: []string{"U4", "U5"},
	}
}

// Load 加载配置。path 为空时依次查找 PRODREC_CONFIG 与 DefaultConfigPaths，都没有则只用默认值和环境变量。
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultSettings(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	s := &Settings{}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return s, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envSections = []string{"catalog", "recommend", "log", "store"}

// envTransformFunc: PRODREC_STORE_REDIS_ADDR -> store.redis_addr。
// 不认识的变量返回空字符串，koanf 会忽略它。
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "sessions" {
		return key
	}
	for _, section := range envSections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok && rest != "" {
			return section + "." + rest
		}
	}
	return ""
}

// sliceConfigPaths 是环境变量中以逗号分隔的列表字段
var sliceConfigPaths = []string{"sessions"}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置，返回所有字段错误。
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, strings.Join(msgs, "; "))
}

// LoggingConfig 转换为 logging.Config。
func (s *Settings) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = s.Log.Level
	cfg.Format = s.Log.Format
	cfg.Caller = s.Log.Caller
	return cfg
}

// StoreConfig 转换为 store.Config。
func (s *Settings) StoreConfig() store.Config {
	return store.Config{
		Backend:   s.Store.Backend,
		RedisAddr: s.Store.RedisAddr,
		RedisDB:   s.Store.RedisDB,
	}
}

// Settings 实现 core.RecommendConfig

func (s *Settings) DefaultColdStartTopN() int    { return s.Recommend.ColdStartTopN }
func (s *Settings) DefaultPersonalizedTopN() int { return s.Recommend.PersonalizedTopN }
func (s *Settings) DefaultTagBoost() float64     { return s.Recommend.TagBoost }
func (s *Settings) DefaultPreferTags() int       { return s.Recommend.PreferredTags }

var _ core.RecommendConfig = (*Settings)(nil)
