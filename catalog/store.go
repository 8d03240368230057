// Package catalog 持有商品目录与交互日志。
//
// 目录在加载后只读，可以在多个会话间无锁共享；
// 交互日志只追加，每次追加在互斥锁内完成。
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rushteam/prodrec/core"
)

// Store 是商品目录与交互日志的内存实现，实现 core.Catalog。
type Store struct {
	products   []*core.Product
	byID       map[string]*core.Product
	byCategory map[string][]*core.Product
	categories []string // 首次出现顺序

	mu           sync.Mutex
	interactions []core.Interaction
}

var _ core.Catalog = (*Store)(nil)

// New 用已解析的商品构建 Store。商品 ID 必须唯一。
func New(products []*core.Product, interactions []core.Interaction) (*Store, error) {
	s := &Store{
		products:     make([]*core.Product, 0, len(products)),
		byID:         make(map[string]*core.Product, len(products)),
		byCategory:   make(map[string][]*core.Product),
		interactions: append([]core.Interaction(nil), interactions...),
	}
	for _, p := range products {
		if p == nil {
			continue
		}
		if p.ID == "" {
			return nil, &core.DataLoadError{Source: SourceCatalog, Column: ColProductID, Err: errEmptyID}
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, &core.DataLoadError{Source: SourceCatalog, Column: ColProductID, Err: fmt.Errorf("%w: %s", errDuplicateID, p.ID)}
		}
		s.products = append(s.products, p)
		s.byID[p.ID] = p
		if _, ok := s.byCategory[p.Category]; !ok {
			s.categories = append(s.categories, p.Category)
		}
		s.byCategory[p.Category] = append(s.byCategory[p.Category], p)
	}
	return s, nil
}

// Load 从两个 CSV 源加载目录与交互日志。interactionSrc 为 nil 时交互日志为空。
// 任意一个源出错都返回 *core.DataLoadError。
func Load(catalogSrc, interactionSrc io.Reader) (*Store, error) {
	if catalogSrc == nil {
		return nil, &core.DataLoadError{Source: SourceCatalog, Err: errors.New("no source")}
	}
	products, err := readProducts(catalogSrc)
	if err != nil {
		return nil, err
	}

	var interactions []core.Interaction
	if interactionSrc != nil {
		interactions, err = readInteractions(interactionSrc)
		if err != nil {
			return nil, err
		}
	}
	return New(products, interactions)
}

// LoadFiles 从文件加载。interactionPath 为空或文件不存在时交互日志为空。
func LoadFiles(catalogPath, interactionPath string) (*Store, error) {
	cf, err := os.Open(catalogPath)
	if err != nil {
		return nil, &core.DataLoadError{Source: SourceCatalog, Err: err}
	}
	defer cf.Close()

	var src io.Reader
	if interactionPath != "" {
		f, err := os.Open(interactionPath)
		switch {
		case err == nil:
			defer f.Close()
			src = f
		case errors.Is(err, os.ErrNotExist):
			// 交互日志可选
		default:
			return nil, &core.DataLoadError{Source: SourceInteractions, Err: err}
		}
	}
	return Load(cf, src)
}

// Len 返回商品数。
func (s *Store) Len() int { return len(s.products) }

// Products 返回目录顺序的全部商品。返回的切片不可修改。
func (s *Store) Products() []*core.Product {
	return s.products
}

// FindByID 按 ID 查找商品。
func (s *Store) FindByID(id string) (*core.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, core.ErrProductNotFound
	}
	return p, nil
}

// FindByCategory 返回类目下的商品，保持目录顺序。
func (s *Store) FindByCategory(category string) []*core.Product {
	return s.byCategory[category]
}

// Categories 按首次出现顺序返回类目。
func (s *Store) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// AppendInteractions 按输入顺序为每个商品 ID 追加一条点击记录，返回更新后的日志快照。
// 不校验商品 ID 是否存在。
func (s *Store) AppendInteractions(userID string, productIDs []string) []core.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range productIDs {
		s.interactions = append(s.interactions, core.NewClick(userID, id))
	}
	return s.snapshotLocked()
}

// Interactions 返回交互日志快照。
func (s *Store) Interactions() []core.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// WriteInteractions 以 CSV 格式写出交互日志。
func (s *Store) WriteInteractions(w io.Writer) error {
	return writeInteractions(w, s.Interactions())
}

func (s *Store) snapshotLocked() []core.Interaction {
	out := make([]core.Interaction, len(s.interactions))
	copy(out, s.interactions)
	return out
}
