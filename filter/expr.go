package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式描述"保留条件"：表达式为 false 的商品被过滤。
//
//	filter.NewExprFilter(`item.category != "hats" && item.popularity >= 10.0`)
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式。空表达式保留所有商品。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("filter expr %q: %w", expr, err)
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回原始表达式。
func (f *ExprFilter) Expr() string {
	return f.prg.String()
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.prg.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
