package notification

import (
	"context"
	"fmt"
)

// Notifier renders the domain event templates and stores the rows. Callers
// treat delivery as best effort; a missed notification never fails the
// operation that produced it.
type Notifier struct {
	repo *Repository
}

func NewNotifier(repo *Repository) *Notifier {
	return &Notifier{repo: repo}
}

func (n *Notifier) OrderCreated(ctx context.Context, userID, orderID, total int64) error {
	actionURL := fmt.Sprintf("/orders/%d", orderID)
	_, err := n.repo.Create(ctx, CreateInput{
		UserID:    userID,
		Title:     "Đặt hàng thành công",
		Message:   fmt.Sprintf("Đơn hàng #%d đã được tạo với tổng tiền %d VND.", orderID, total),
		Type:      "success",
		Category:  "order",
		ActionURL: &actionURL,
	})
	return err
}

func (n *Notifier) PaymentReceived(ctx context.Context, userID, amount, balance int64) error {
	_, err := n.repo.Create(ctx, CreateInput{
		UserID:   userID,
		Title:    "Nạp tiền thành công",
		Message:  fmt.Sprintf("Bạn đã nạp %d VND vào tài khoản. Số dư hiện tại: %d VND.", amount, balance),
		Type:     "success",
		Category: "payment",
	})
	return err
}

func (n *Notifier) PaymentMade(ctx context.Context, userID, amount, balance int64) error {
	_, err := n.repo.Create(ctx, CreateInput{
		UserID:   userID,
		Title:    "Thanh toán thành công",
		Message:  fmt.Sprintf("Bạn đã thanh toán %d VND. Số dư còn lại: %d VND.", amount, balance),
		Type:     "success",
		Category: "payment",
	})
	return err
}

func (n *Notifier) StatusChanged(ctx context.Context, userID int64, from, to string) error {
	_, err := n.repo.Create(ctx, CreateInput{
		UserID:   userID,
		Title:    "Cập nhật trạng thái điều trị",
		Message:  fmt.Sprintf("Trạng thái của bạn đã được chuyển từ %s sang %s.", from, to),
		Type:     "info",
		Category: "health",
	})
	return err
}
