package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV renders the dashboard figures as sectioned CSV rows.
func WriteCSV(w io.Writer, d Dashboard) error {
	cw := csv.NewWriter(w)

	records := [][]string{
		{"Báo cáo", "Từ", "Đến"},
		{"Tổng quan", d.Since.Format("2006-01-02"), d.Until.Format("2006-01-02")},
		{},
		{"Trạng thái", "Số ca", "Tỷ lệ (%)"},
	}
	for _, s := range d.Statuses {
		records = append(records, []string{
			s.Status,
			strconv.Itoa(s.Count),
			fmt.Sprintf("%.1f", s.Percent),
		})
	}

	records = append(records,
		[]string{},
		[]string{"Đơn hàng", "Tổng tiền", "Trung bình"},
		[]string{
			strconv.Itoa(d.Orders.Count),
			strconv.FormatInt(d.Orders.TotalAmount, 10),
			strconv.FormatInt(d.Orders.AverageAmount, 10),
		},
		[]string{},
		[]string{"Địa điểm", "Sức chứa", "Hiện tại", "Tỷ lệ (%)"},
	)
	for _, l := range d.Locations {
		records = append(records, []string{
			l.Name,
			strconv.Itoa(l.Capacity),
			strconv.Itoa(l.CurrentCount),
			fmt.Sprintf("%.1f", l.Percent),
		})
	}

	records = append(records,
		[]string{},
		[]string{"Tổng nạp", "Tổng thanh toán"},
		[]string{
			strconv.FormatInt(d.Payments.Deposits, 10),
			strconv.FormatInt(d.Payments.Payments, 10),
		},
	)

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("analytics: write csv: %w", err)
	}
	return nil
}
