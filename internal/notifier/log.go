package notifier

import (
	"context"
	"log"
	"os"

	"conf-review/internal/model"
)

// LogNotifier 仅打印新建分配，适合开发阶段使用。
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier 创建日志通知器，未提供 logger 时默认输出到标准输出。
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(os.Stdout, "[notify] ", log.LstdFlags)
	}
	return &LogNotifier{logger: logger}
}

// Notify 逐条打印分配。
func (n LogNotifier) Notify(ctx context.Context, assignments []model.Assignment) error {
	for _, a := range assignments {
		n.logger.Printf("assigned paper=%s reviewer=%s conference=%s", a.PaperID, a.ReviewerID, a.ConferenceID)
	}
	return nil
}
