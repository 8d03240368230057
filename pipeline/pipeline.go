package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/logging"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链，按顺序执行。
type Pipeline struct {
	Name  string
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		logging.Debug().
			Str("pipeline", p.Name).
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Msg("node processed")
		cur = next
	}
	return cur, nil
}
