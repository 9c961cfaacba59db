// Package sales holds the transient sales entities shared by every pipeline stage:
// optovik sheets, drug dictionaries, budget multipliers and drug groups.
package sales

// Labels are the human-facing header and row captions written into workbooks
type Labels struct {
	VtorichkaSheet  string
	MainHeader      string
	Client          string
	Region          string
	Territory       string
	Quantity        string
	TotalSales      string
	Total           string
	Drug            string
	Price           string
	Reserve         string
	Date            string
	Ungrouped       string
	Oblast          string
	Address         string
	FinalSum        string
	FinalSumMinus   string
	FinalSumReklama string
	FinalSumLeksiya string
	OneCSheet       string
}

// DefaultLabels returns the captions used by the distribution team's templates
func DefaultLabels() Labels {
	return Labels{
		VtorichkaSheet:  "Вторичка",
		MainHeader:      "Данные клиентов",
		Client:          "Клиент",
		Region:          "Регион",
		Territory:       "Территори",
		Quantity:        "Количество",
		TotalSales:      "Сумма продажи",
		Total:           "Итого",
		Drug:            "Препарат",
		Price:           "Сумма с наценкой",
		Reserve:         "Резерв",
		Date:            "Дата",
		Ungrouped:       "Others",
		Oblast:          "Область",
		Address:         "Адрес",
		FinalSum:        "FINAL SUM",
		FinalSumMinus:   "FINAL SUM ( Minus 10 % )",
		FinalSumReklama: "Final summa for Reklama",
		FinalSumLeksiya: "Final summa for Leksiya",
		OneCSheet:       "Shayana",
	}
}

// ColumnMap holds 1-based column positions of the input workbooks
type ColumnMap struct {
	// Optovik sheets
	Count     int
	Drug      int
	Client    int
	Region    int
	Territory int
	Quantity  int
	Price     int
	Reserve   int
	Date      int

	// Drug dictionary sheets
	DictCustomer int
	DictStandard int

	// Budget difference sheet
	BudgetDrug      int
	BudgetVtorichka int
	BudgetByRegion  int

	// DateLayout is the Go time layout of text dates (dd.mm.yyyy)
	DateLayout string
}

// DefaultColumns returns the standard optovik layout
func DefaultColumns() ColumnMap {
	return ColumnMap{
		Count:           8,
		Drug:            1,
		Client:          2,
		Region:          3,
		Territory:       4,
		Quantity:        5,
		Price:           6,
		Reserve:         7,
		Date:            8,
		DictCustomer:    1,
		DictStandard:    2,
		BudgetDrug:      1,
		BudgetVtorichka: 2,
		BudgetByRegion:  3,
		DateLayout:      "02.01.2006",
	}
}

// Percentages used by the final summary rows
type Percentages struct {
	// FinalSumMinus is the retained share after the deduction, e.g. 90 for "minus 10 %"
	FinalSumMinus int
	// Leksiya is the share of the reduced sum reserved for lectures
	Leksiya int
}
