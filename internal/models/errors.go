package models

import (
	"errors"
	"fmt"
)

// 管道级错误定义
var (
	ErrNavigation    = errors.New("页面导航失败")
	ErrGateAbandoned = errors.New("验证等待被放弃")
	ErrExtraction    = errors.New("提取过程异常")
)

// PipelineError 单个商品处理失败
// 携带失败原因分类,批次编排器据此记账并继续处理后续商品
type PipelineError struct {
	Reason FailReason
	Err    error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("商品处理失败(%s): %v", e.Reason, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError 创建管道错误
func NewPipelineError(reason FailReason, err error) *PipelineError {
	return &PipelineError{Reason: reason, Err: err}
}
