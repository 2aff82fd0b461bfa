package repository

import "errors"

// 通用的存储库错误
var (
	// ErrDuplicateEntry 表示插入的数据违反了唯一约束
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)
