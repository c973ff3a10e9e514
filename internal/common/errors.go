package common

import "fmt"

// AppError 应用级错误结构
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap 包装底层错误
func Wrap(code, message string, err error) error {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New 创建新错误
func New(code, message string) error {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// 错误码常量
// 只有 ANALYSIS_ERROR 会跨出系统边界，其余都在管道内部被它包一层
const (
	ErrCodeInvalidURL   = "INVALID_URL"
	ErrCodeMetricsFetch = "METRICS_FETCH_ERROR"
	ErrCodeAIProcessing = "AI_PROCESSING_ERROR"
	ErrCodeAnalysis     = "ANALYSIS_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)
