package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"conf-review/internal/model"
)

// Directory 用于解析评审人邮箱与论文标题。
type Directory interface {
	GetReviewer(ctx context.Context, conferenceID, reviewerID string) (*model.ConferenceReviewer, error)
	GetPaper(ctx context.Context, id string) (*model.Paper, error)
}

// Notifier 接收新建的分配记录。
type Notifier interface {
	Notify(ctx context.Context, assignments []model.Assignment) error
}

// ReviewerNotifier 按评审人分组，向每位评审人发送其新分配的论文。
// 没有邮箱的评审人交给 fallback。
type ReviewerNotifier struct {
	dir      Directory
	emailCfg EmailConfig
	sender   EmailSender
	fallback Notifier
}

// NewReviewerNotifier 创建实例。
func NewReviewerNotifier(dir Directory, cfg EmailConfig, sender EmailSender, fallback Notifier) *ReviewerNotifier {
	if sender == nil {
		sender = NewSMTPClient(cfg)
	}
	return &ReviewerNotifier{
		dir:      dir,
		emailCfg: cfg,
		sender:   sender,
		fallback: fallback,
	}
}

// Notify 向评审人逐一发信，单个失败不影响其他评审人，错误合并返回。
func (n *ReviewerNotifier) Notify(ctx context.Context, assignments []model.Assignment) error {
	if len(assignments) == 0 || n.dir == nil {
		return nil
	}

	var order []string
	grouped := make(map[string][]model.Assignment)
	for _, a := range assignments {
		key := a.ConferenceID + "\x00" + a.ReviewerID
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], a)
	}

	var errs []error
	var unreachable []model.Assignment
	for _, key := range order {
		batch := grouped[key]
		reviewer, err := n.dir.GetReviewer(ctx, batch[0].ConferenceID, batch[0].ReviewerID)
		if err != nil {
			errs = append(errs, fmt.Errorf("resolve reviewer %s: %w", batch[0].ReviewerID, err))
			continue
		}
		if strings.TrimSpace(reviewer.Email) == "" {
			unreachable = append(unreachable, batch...)
			continue
		}

		subject := n.emailCfg.Subject
		if subject == "" {
			subject = "New papers to review"
		}
		msg := EmailMessage{
			From:    n.emailCfg.From,
			To:      []string{reviewer.Email},
			Subject: subject,
			Body:    n.buildReviewerBody(ctx, reviewer, batch),
		}
		if err := n.sender.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", reviewer.Email, err))
		}
	}

	if len(unreachable) > 0 && n.fallback != nil {
		if err := n.fallback.Notify(ctx, unreachable); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *ReviewerNotifier) buildReviewerBody(ctx context.Context, reviewer *model.ConferenceReviewer, batch []model.Assignment) string {
	var b strings.Builder
	name := reviewer.Name
	if name == "" {
		name = reviewer.ReviewerID
	}
	b.WriteString(fmt.Sprintf("Hello %s,\n\nYou have been assigned the following papers:\n", name))
	for _, a := range batch {
		title := a.PaperID
		if paper, err := n.dir.GetPaper(ctx, a.PaperID); err == nil && paper.Title != "" {
			title = paper.Title
		}
		b.WriteString(fmt.Sprintf("- %s (%s)\n", title, a.PaperID))
	}
	return b.String()
}
