package report

import (
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"github.com/xuri/excelize/v2"
)

const (
	headerColor  = "F4ECC5"
	blockColor   = "FFE4B5"
	borderColor  = "CCCC00"
	totalYellow  = "FFFF00"
	totalGreen   = "92D050"
	totalBorders = "000000"
	fontFamily   = "Arial"
)

var accountingFormat = workbook.AccountingFormat

func font(size float64, bold, italic bool) *excelize.Font {
	return &excelize.Font{Family: fontFamily, Size: size, Bold: bold, Italic: italic, Color: "000000"}
}

var centered = &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}

// sheetStyles are the cell styles of a pivot sheet
var sheetStyles = map[string]func() *excelize.Style{
	"header": func() *excelize.Style {
		return &excelize.Style{
			Font:      font(8, true, false),
			Fill:      workbook.Fill(headerColor),
			Border:    workbook.Borders(borderColor),
			Alignment: centered,
		}
	},
	"block_key": func() *excelize.Style {
		return &excelize.Style{Font: font(8, true, false), Fill: workbook.Fill(blockColor), Border: workbook.Borders(borderColor)}
	},
	"block_num": func() *excelize.Style {
		return &excelize.Style{
			Font:         font(7, false, false),
			Fill:         workbook.Fill(blockColor),
			Border:       workbook.Borders(borderColor),
			CustomNumFmt: &accountingFormat,
		}
	},
	"data_key": func() *excelize.Style {
		return &excelize.Style{Font: font(7, false, false)}
	},
	"data_num": func() *excelize.Style {
		return &excelize.Style{Font: font(7, false, false), CustomNumFmt: &accountingFormat}
	},
	"final_key": func() *excelize.Style {
		return &excelize.Style{Font: font(8, false, true), Fill: workbook.Fill(headerColor), Border: workbook.Borders(borderColor)}
	},
	"final_num": func() *excelize.Style {
		return &excelize.Style{
			Font:         font(8, false, true),
			Fill:         workbook.Fill(headerColor),
			Border:       workbook.Borders(borderColor),
			CustomNumFmt: &accountingFormat,
		}
	},
}

// totalStyles are the cell styles of the Total sheet
var totalStyles = map[string]func() *excelize.Style{
	"total_header": func() *excelize.Style {
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      workbook.Fill(totalYellow),
			Border:    workbook.Borders(totalBorders),
			Alignment: centered,
		}
	},
	"total_label": func() *excelize.Style {
		return &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      workbook.Fill(totalGreen),
			Border:    workbook.Borders(totalBorders),
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
		}
	},
	"total_value": func() *excelize.Style {
		return &excelize.Style{Fill: workbook.Fill(totalGreen), Border: workbook.Borders(totalBorders), CustomNumFmt: &accountingFormat}
	},
	"total_final": func() *excelize.Style {
		return &excelize.Style{Fill: workbook.Fill(totalYellow), Border: workbook.Borders(totalBorders), CustomNumFmt: &accountingFormat}
	},
	"total_row": func() *excelize.Style {
		return &excelize.Style{
			Font:         &excelize.Font{Bold: true},
			Fill:         workbook.Fill(totalYellow),
			Border:       workbook.Borders(totalBorders),
			CustomNumFmt: &accountingFormat,
		}
	},
}
