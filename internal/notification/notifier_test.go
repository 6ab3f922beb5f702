package notification

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var notifierTestColumns = []string{
	"id", "user_id", "title", "message", "type", "category",
	"is_read", "action_url", "metadata", "created_at", "read_at",
}

func TestNotifierOrderCreated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	message := "Đơn hàng #42 đã được tạo với tổng tiền 150000 VND."
	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(int64(7), "Đặt hàng thành công", message, "success", "order", "/orders/42", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(notifierTestColumns).
			AddRow(1, 7, "Đặt hàng thành công", message, "success", "order",
				false, "/orders/42", nil, time.Now().UTC(), nil))

	err = NewNotifier(NewRepository(db)).OrderCreated(context.Background(), 7, 42, 150000)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotifierStatusChanged(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	message := "Trạng thái của bạn đã được chuyển từ F1 sang F0."
	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(int64(7), "Cập nhật trạng thái điều trị", message, "info", "health", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(notifierTestColumns).
			AddRow(2, 7, "Cập nhật trạng thái điều trị", message, "info", "health",
				false, nil, nil, time.Now().UTC(), nil))

	err = NewNotifier(NewRepository(db)).StatusChanged(context.Background(), 7, "F1", "F0")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotifierPaymentReceived(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	message := "Bạn đã nạp 50000 VND vào tài khoản. Số dư hiện tại: 120000 VND."
	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(int64(7), "Nạp tiền thành công", message, "success", "payment", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(notifierTestColumns).
			AddRow(3, 7, "Nạp tiền thành công", message, "success", "payment",
				false, nil, nil, time.Now().UTC(), nil))

	err = NewNotifier(NewRepository(db)).PaymentReceived(context.Background(), 7, 50000, 120000)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
