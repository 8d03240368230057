package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 使用场景：
//   - Catalog 错误：NOT_FOUND
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Recorder 错误：INVALID_INPUT
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "NOT_SUPPORTED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "catalog", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeDataLoad      = "DATA_LOAD"      // 数据加载失败
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleCatalog  = "catalog"  // 商品目录
	ModuleProfile  = "profile"  // 用户画像
	ModuleRecorder = "recorder" // 交互记录
	ModuleStore    = "store"    // 存储模块
	ModuleConfig   = "config"   // 配置
)

var (
	// ErrProductNotFound 表示目录中没有该商品
	ErrProductNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: product not found")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// DataLoadError 表示目录或交互数据无法加载（缺列、行无法解析等）。
// 启动阶段致命，不会返回部分数据。
type DataLoadError struct {
	Source string // "catalog" / "interactions"
	Line   int    // 出错的行号（从 1 开始，含表头）；0 表示整体错误
	Column string // 相关列，可为空
	Err    error
}

func (e *DataLoadError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("load %s: line %d column %q: %v", e.Source, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("load %s: line %d: %v", e.Source, e.Line, e.Err)
	case e.Column != "":
		return fmt.Sprintf("load %s: column %q: %v", e.Source, e.Column, e.Err)
	default:
		return fmt.Sprintf("load %s: %v", e.Source, e.Err)
	}
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// IsDataLoadError 检查错误链中是否有 DataLoadError。
func IsDataLoadError(err error) bool {
	var dle *DataLoadError
	return errors.As(err, &dle)
}

// UnknownProductWarning 表示选中的商品 ID 在目录中不存在。
// 非致命：构建画像时跳过并收集，不作为错误返回。
type UnknownProductWarning struct {
	ProductID string
}

func (w *UnknownProductWarning) Error() string {
	return fmt.Sprintf("product %q not found", w.ProductID)
}
