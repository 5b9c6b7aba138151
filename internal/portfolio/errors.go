package portfolio

import "errors"

var (
	// ErrNotFound 表示组合中不存在该股票。
	ErrNotFound = errors.New("portfolio: 未找到该持仓")
	// ErrInsufficientCash 表示现金不足以完成加仓。
	ErrInsufficientCash = errors.New("portfolio: 现金不足")
	// ErrInvalidEdit 表示用户提交的股数或价格不满足约束，组合保持不变。
	ErrInvalidEdit = errors.New("portfolio: 非法的编辑操作")
)
