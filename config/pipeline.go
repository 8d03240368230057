package config

import (
	"fmt"

	"github.com/rushteam/prodrec/pipeline"
)

// LoadPipeline 从 YAML 文件构建 Pipeline，node 类型必须已注册。
// 调用方需 import _ "github.com/rushteam/prodrec/config/builders"。
func LoadPipeline(path string) (*pipeline.Pipeline, error) {
	cfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		return nil, fmt.Errorf("load pipeline %s: %w", path, err)
	}
	return BuildPipeline(cfg)
}

// BuildPipeline 校验并构建 Pipeline。
func BuildPipeline(cfg *pipeline.Config) (*pipeline.Pipeline, error) {
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(DefaultFactory())
}
