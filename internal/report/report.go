// Package report renders an analysis result into an Excel workbook.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"stock-forecaster/internal/analysis"

	"github.com/xuri/excelize/v2"
)

const (
	sheetProducts   = "Products"
	sheetCumulative = "Cumulative"
	sheetRankings   = "Rankings"
)

var productHeaders = []string{
	"Product", "End Selling Price", "End Cost Price",
	"Average Selling Price", "Average Cost Price",
	"Total Sales", "Total Costs", "Profit %",
	"Sales Excluding Lost", "Profit Excluding Lost %",
}

// Build renders an aggregate analysis into a three-sheet workbook:
// per-product metrics, cumulative totals, and rankings.
func Build(agg *analysis.Aggregate, start, end time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetProducts)
	if _, err := f.NewSheet(sheetCumulative); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetRankings); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	writeProducts(f, agg)
	writeCumulative(f, agg, start, end)
	writeRankings(f, agg)

	f.SetActiveSheet(0)
	return f, nil
}

// Save writes the workbook for an aggregate analysis to path.
func Save(path string, agg *analysis.Aggregate, start, end time.Time) error {
	f, err := Build(agg, start, end)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// WriteTo streams the workbook for an aggregate analysis to w.
func WriteTo(w io.Writer, agg *analysis.Aggregate, start, end time.Time) error {
	f, err := Build(agg, start, end)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func writeProducts(f *excelize.File, agg *analysis.Aggregate) {
	for col, h := range productHeaders {
		f.SetCellValue(sheetProducts, cell(col, 1), h)
	}

	ids := make([]string, 0, len(agg.Products))
	for id := range agg.Products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, id := range ids {
		pa := agg.Products[id]
		row := i + 2
		values := []interface{}{
			pa.Product, pa.EndSellingPrice, pa.EndCostPrice,
			pa.AvgSellingPrice, pa.AvgCostPrice,
			pa.TotalSales, pa.TotalCosts, pa.ProfitPercent,
			pa.SalesExcludingLost, pa.ProfitExcludingLost,
		}
		for col, v := range values {
			f.SetCellValue(sheetProducts, cell(col, row), v)
		}
	}
}

func writeCumulative(f *excelize.File, agg *analysis.Aggregate, start, end time.Time) {
	rows := [][2]interface{}{
		{"Report Generated", time.Now().Format("2006-01-02 15:04:05")},
		{"Forecast Range", start.Format("2006-01-02") + " to " + end.Format("2006-01-02")},
		{"Total Sales", agg.Cumulative.TotalSales},
		{"Total Sales (Excluding Lost)", agg.Cumulative.TotalSalesExcludingLost},
		{"Total Costs", agg.Cumulative.TotalCosts},
		{"Total Profit %", agg.Cumulative.TotalProfitPercent},
	}
	for i, r := range rows {
		f.SetCellValue(sheetCumulative, cell(0, i+1), r[0])
		f.SetCellValue(sheetCumulative, cell(1, i+1), r[1])
	}
}

func writeRankings(f *excelize.File, agg *analysis.Aggregate) {
	rows := [][2]interface{}{
		{"Highest Selling Product", agg.Rankings.HighestSelling},
		{"Most Profitable Product", agg.Rankings.HighestProfit},
		{"Highest Loss Product", agg.Rankings.HighestLoss},
	}
	for i, r := range rows {
		f.SetCellValue(sheetRankings, cell(0, i+1), r[0])
		f.SetCellValue(sheetRankings, cell(1, i+1), r[1])
	}
}

// cell converts zero-based column/one-based row to an A1 reference.
func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
