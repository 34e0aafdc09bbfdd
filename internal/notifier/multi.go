package notifier

import (
	"context"
	"errors"

	"conf-review/internal/model"
)

// Multi 依次调用多个通知器，错误合并返回。
type Multi []Notifier

// NewMulti 组合通知器，忽略 nil。
func NewMulti(notifiers ...Notifier) Multi {
	out := make(Multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (m Multi) Notify(ctx context.Context, assignments []model.Assignment) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, assignments); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
