package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLocationNotFound 偏移与原文都无法定位
	ErrLocationNotFound = errors.New("未找到替换位置")
	// ErrElementNotFound 文档中不存在该元素
	ErrElementNotFound = errors.New("未找到元素")
	// ErrTemplateUnavailable 模板内容缺失，整个批次无法进行
	ErrTemplateUnavailable = errors.New("模板不可用")
	// ErrNoMapping 模板既没有位置映射也没有文本映射
	ErrNoMapping = errors.New("模板没有可用的映射")
	// ErrUnsupportedFormat 不是 OOXML 文档
	ErrUnsupportedFormat = errors.New("不支持的文档格式")
)

// RecordError 单条记录生成失败
type RecordError struct {
	Index int
	Cause error
}

func (e *RecordError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("第 %d 条记录生成失败: %v", e.Index+1, e.Cause)
	}
	return fmt.Sprintf("第 %d 条记录生成失败", e.Index+1)
}

func (e *RecordError) Unwrap() error {
	return e.Cause
}

// NewRecordError 包装记录级错误
func NewRecordError(index int, cause error) error {
	return &RecordError{Index: index, Cause: cause}
}
