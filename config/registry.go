package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pipeline"
)

// NodeBuilder 把 YAML 中一个 node 的 config 段变成可执行的 Node。
type NodeBuilder = pipeline.NodeBuilder

// 全局 node 类型表。内置类型由 config/builders 在 init 中写入，
// 入口处 import _ "github.com/rushteam/prodrec/config/builders" 即可。
var (
	registry   = make(map[string]NodeBuilder)
	registryMu sync.RWMutex
)

// Register 登记一种 node 类型，同名后注册者覆盖先注册者；空名或空 builder 忽略。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	registryMu.Lock()
	registry[typeName] = builder
	registryMu.Unlock()
}

func lookup(typeName string) (NodeBuilder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[typeName]
	return b, ok
}

// SupportedTypes 按字母序列出已登记的 node 类型。
func SupportedTypes() []string {
	registryMu.RLock()
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	registryMu.RUnlock()
	sort.Strings(types)
	return types
}

// DefaultFactory 用当前类型表的快照生成 NodeFactory，之后的 Register 不影响它。
func DefaultFactory() *pipeline.NodeFactory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range registry {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 在构建前检查每个 node 的类型是否已登记。
// 未写 type 的 node 交给 BuildPipeline 报错。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	for i, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			continue
		}
		if _, ok := lookup(nc.Type); !ok {
			return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
				fmt.Sprintf("pipeline node #%d: type %q is not registered, known types: %s",
					i, nc.Type, strings.Join(SupportedTypes(), ", ")))
		}
	}
	return nil
}
