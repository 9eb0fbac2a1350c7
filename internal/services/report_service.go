package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"allinbee/internal/auth"
	"allinbee/internal/models/db_models"
	"allinbee/internal/models/request_models"
	"allinbee/pkg/utils"
)

const salesSheet = "Sheet1"

// SalesReport is an xlsx workbook ready to be streamed.
type SalesReport struct {
	FileName string
	Content  []byte
}

var salesReportHeader = []interface{}{"Date", "Menu", "Unit price", "Sold", "Revenue"}

// ExportSalesReport writes one row per menu per day and a totals row.
// Revenue uses the menu's current price; sales rows only keep counts.
func (s *CafeteriaService) ExportSalesReport(ctx context.Context, caller auth.Identity, query request_models.SalesRangeQuery) (*SalesReport, error) {
	sales, err := s.listSales(ctx, caller, query)
	if err != nil {
		return nil, err
	}

	content, err := buildSalesWorkbook(sales)
	if err != nil {
		s.log.Error("Failed to build sales workbook", zap.Error(err))
		return nil, fmt.Errorf("build sales workbook: %w", err)
	}

	return &SalesReport{
		FileName: fmt.Sprintf("sales_%s_%s.xlsx", query.From, query.To),
		Content:  content,
	}, nil
}

func buildSalesWorkbook(sales []db_models.Sale) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(salesSheet, "A1", &salesReportHeader); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(salesSheet, "A1", "E1", bold); err != nil {
		return nil, err
	}

	var (
		totalSold    int
		totalRevenue = decimal.Zero
	)
	for i, sale := range sales {
		name, price := "", decimal.Zero
		if sale.Menu != nil {
			name, price = sale.Menu.Name, sale.Menu.Price
		}
		revenue := price.Mul(decimal.NewFromInt(int64(sale.NumSold)))
		totalSold += sale.NumSold
		totalRevenue = totalRevenue.Add(revenue)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			sale.SaleDate.UTC().Format(utils.DateLayout),
			name,
			price.InexactFloat64(),
			sale.NumSold,
			revenue.InexactFloat64(),
		}
		if err := f.SetSheetRow(salesSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	totalsRow := len(sales) + 2
	first, _ := excelize.CoordinatesToCellName(1, totalsRow)
	last, _ := excelize.CoordinatesToCellName(5, totalsRow)
	totals := []interface{}{"Total", "", "", totalSold, totalRevenue.InexactFloat64()}
	if err := f.SetSheetRow(salesSheet, first, &totals); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(salesSheet, first, last, bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(salesSheet, "A", "E", 16); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
