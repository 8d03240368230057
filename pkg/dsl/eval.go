package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/prodrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的布尔表达式，可以对多个 Item 反复求值。
//
// 表达式语法（CEL 标准语法）：
//   - 类目：item.category == "shoes"
//   - 热度：item.popularity >= 50.0
//   - 标签："sale" in item.tags
//   - 召回来源：label.recall_source == "trending"
//   - 用户：rctx.user_id == "U4"
//
// 访问不存在的 label key 会报错，应先用 "key" in label 判断。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。表达式为空时返回 nil Program，Eval 恒为 true。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.expr
}

// Eval 对 item 求值，返回布尔结果。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Evaluate 编译并执行一次表达式，适合一次性判断。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	tags := []string{}
	it := map[string]any{
		"id":       item.ID,
		"score":    item.Score,
		"features": item.Features,
	}
	if p := item.Product; p != nil {
		if parsed := p.Tags(); parsed != nil {
			tags = parsed
		}
		it["title"] = p.Title
		it["category"] = p.Category
		it["popularity"] = p.PopularityScore
	}
	it["tags"] = tags

	rc := map[string]any{}
	if rctx != nil {
		rc["user_id"] = rctx.UserID
		rc["session_id"] = rctx.SessionID
		rc["scene"] = rctx.Scene
	}

	return map[string]any{
		"item":  it,
		"label": labels,
		"rctx":  rc,
	}
}
