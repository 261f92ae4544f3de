// Package report exports back-office sales summaries to Excel workbooks the
// agency's accountant works with.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/altamar/tour-vouchers/internal/models"
	"github.com/altamar/tour-vouchers/internal/money"
	"github.com/altamar/tour-vouchers/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// VoucherLister is the slice of the store the reporter needs
type VoucherLister interface {
	List(ctx context.Context, filter repository.ListFilter) ([]*models.VoucherRecord, error)
}

// SalesReporter writes xlsx summaries of issued vouchers
type SalesReporter struct {
	vouchers VoucherLister
	logger   *zap.Logger
}

// NewSalesReporter creates a new sales reporter
func NewSalesReporter(vouchers VoucherLister, logger *zap.Logger) *SalesReporter {
	return &SalesReporter{vouchers: vouchers, logger: logger}
}

var headerRow = []string{
	"Código", "Cliente", "Vendedor", "Operadora",
	"Total", "Entrada", "Restante", "Status", "Emitido em",
}

// Export writes the sales summary for vouchers issued in [from, to) to
// outputPath and returns the number of data rows written.
func (r *SalesReporter) Export(ctx context.Context, from, to time.Time, outputPath string) (int, error) {
	vouchers, err := r.vouchers.List(ctx, repository.ListFilter{
		Status:     models.StatusIssued,
		IssuedFrom: from,
		IssuedTo:   to,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list vouchers for report: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, title := range headerRow {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return 0, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return 0, fmt.Errorf("failed to write header cell: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, boldStyle); err != nil {
			return 0, fmt.Errorf("failed to style header cell: %w", err)
		}
	}

	for i, v := range vouchers {
		issuedAt := ""
		if v.IssuedAt != nil {
			issuedAt = v.IssuedAt.Format("2006-01-02")
		}
		values := []interface{}{
			v.Code,
			v.ClientName,
			v.SellerName,
			v.OperatorName,
			money.FormatBRL(v.TotalCents),
			money.FormatBRL(v.DownPaymentCents),
			money.FormatBRL(money.Remaining(v.TotalCents, v.DownPaymentCents)),
			string(v.Status),
			issuedAt,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return 0, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return 0, fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}

	r.logger.Info("Sales report exported",
		zap.String("path", outputPath),
		zap.Int("vouchers", len(vouchers)))
	return len(vouchers), nil
}
