package model

import (
	"errors"
	"fmt"
)

// 错误分类，调用方通过 errors.Is 判断类型。
var (
	// ErrValidation 表示输入缺失或格式错误。
	ErrValidation = errors.New("validation failed")
	// ErrNotFound 表示会议、论文或评审人不存在。
	ErrNotFound = errors.New("not found")
	// ErrDuplicateAssignment 表示 (paper, reviewer, conference) 已存在。
	ErrDuplicateAssignment = errors.New("duplicate assignment")
	// ErrCapacity 表示论文或评审人的分配容量已满。
	ErrCapacity = errors.New("capacity exceeded")
	// ErrAlreadyReviewed 表示该评审人已提交过该论文的评审，同时属于 ErrValidation。
	ErrAlreadyReviewed = fmt.Errorf("%w: paper already reviewed by this reviewer", ErrValidation)
)
