package overseastax

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[Currency]string{
	CNY: "¥",
	USD: "$",
	HKD: "HK$",
}

// CurrencySymbol returns the display symbol for a currency.
func CurrencySymbol(c Currency) string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}

// DisplayRow is the flat per-year export row, converted to the selected
// display currency and rounded to two decimals. This is the only place the
// engine rounds.
type DisplayRow struct {
	Year            int      `json:"year"`
	Currency        Currency `json:"currency"`
	CapitalGain     Amount   `json:"capital_gain"`
	CapitalGainsTax Amount   `json:"capital_gains_tax"`
	DividendIncome  Amount   `json:"dividend_income"`
	DividendTax     Amount   `json:"dividend_tax"`
	ForeignTaxPaid  Amount   `json:"foreign_tax_paid"`
	TaxCredit       Amount   `json:"tax_credit"`
	InterestIncome  Amount   `json:"interest_income"`
	InterestTax     Amount   `json:"interest_tax"`
	TotalTaxDue     Amount   `json:"total_tax_due"`
	NetTaxPayable   Amount   `json:"net_tax_payable"`
}

// BuildDisplayRow converts one year's result into the selected display
// currency.
func BuildDisplayRow(result TaxResult, display Currency, rates *RateTable) (DisplayRow, error) {
	conv := func(m Money) (Amount, error) {
		converted, err := rates.Convert(m.Amount.Decimal, m.Currency, display, result.Year)
		if err != nil {
			return Amount{}, err
		}
		return amt(converted.Round(2)), nil
	}

	row := DisplayRow{Year: result.Year, Currency: display}
	fields := []struct {
		dst *Amount
		src Money
	}{
		{&row.CapitalGain, result.CapitalGains.TotalGain},
		{&row.CapitalGainsTax, result.CapitalGains.TaxAmount},
		{&row.DividendIncome, result.DividendTax.TotalDividend},
		{&row.DividendTax, result.DividendTax.GrossTax},
		{&row.ForeignTaxPaid, result.DividendTax.ForeignTaxPaid},
		{&row.TaxCredit, result.DividendTax.TaxCredit},
		{&row.InterestIncome, result.InterestTax.TotalInterest},
		{&row.InterestTax, result.InterestTax.TaxAmount},
		{&row.TotalTaxDue, result.Summary.TotalTaxDue},
		{&row.NetTaxPayable, result.Summary.NetTaxPayable},
	}
	for _, f := range fields {
		v, err := conv(f.src)
		if err != nil {
			return DisplayRow{}, err
		}
		*f.dst = v
	}
	return row, nil
}

// ExportCSV renders one row per year in the selected display currency.
func ExportCSV(results []TaxResult, display Currency, rates *RateTable) (string, error) {
	headers := []string{
		"年度",
		fmt.Sprintf("资本利得(%s)", display),
		fmt.Sprintf("资本利得税(%s)", display),
		fmt.Sprintf("股息收入(%s)", display),
		fmt.Sprintf("股息税(%s)", display),
		fmt.Sprintf("可抵免税额(%s)", display),
		fmt.Sprintf("利息收入(%s)", display),
		fmt.Sprintf("利息税(%s)", display),
		fmt.Sprintf("应纳税总额(%s)", display),
		fmt.Sprintf("实际应缴(%s)", display),
	}

	lines := []string{strings.Join(headers, ",")}
	for _, result := range results {
		row, err := BuildDisplayRow(result, display, rates)
		if err != nil {
			return "", err
		}
		fields := []string{
			fmt.Sprintf("%d", row.Year),
			row.CapitalGain.StringFixed(2),
			row.CapitalGainsTax.StringFixed(2),
			row.DividendIncome.StringFixed(2),
			row.DividendTax.StringFixed(2),
			row.TaxCredit.StringFixed(2),
			row.InterestIncome.StringFixed(2),
			row.InterestTax.StringFixed(2),
			row.TotalTaxDue.StringFixed(2),
			row.NetTaxPayable.StringFixed(2),
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// RenderReport generates the human-readable multi-section report for one
// year, with an estimated-cost disclosure when any matched lot used a
// synthesized opening-holding basis.
func RenderReport(result TaxResult, display Currency, rates *RateTable) (string, error) {
	symbol := CurrencySymbol(display)
	fmtMoney := func(m Money) (string, error) {
		converted, err := rates.Convert(m.Amount.Decimal, m.Currency, display, result.Year)
		if err != nil {
			return "", err
		}
		return symbol + converted.Round(2).StringFixed(2), nil
	}

	hasEstimatedCost := false
	for _, d := range result.CapitalGains.Details {
		if d.IsEstimatedCost {
			hasEstimatedCost = true
			break
		}
	}

	var b strings.Builder
	heavy := strings.Repeat("═", 55)
	light := strings.Repeat("─", 55)

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}
	moneyLine := func(label string, m Money) error {
		s, err := fmtMoney(m)
		if err != nil {
			return err
		}
		line("  %s：%s", label, s)
		return nil
	}

	line(heavy)
	line("  %d年度 境外证券投资个人所得税计算报告", result.Year)
	line(heavy)
	line("")
	line("生成时间：%s", NowInShanghai().Format("2006-01-02 15:04:05"))
	line("币种显示：%s", display)
	line("")
	line("汇率信息（%s）", result.ExchangeRate.Date)
	line("  来源：%s", result.ExchangeRate.Source)
	line("  1 USD = %s CNY", result.ExchangeRate.USD.Div(hundred).Round(4).StringFixed(4))
	line("  1 HKD = %s CNY", result.ExchangeRate.HKD.Div(hundred).Round(4).StringFixed(4))
	line("")

	line(light)
	line("一、财产转让所得（资本利得）")
	line(light)
	line("  交易笔数：%d 笔", len(result.CapitalGains.Details))
	if err := moneyLine("总盈亏", result.CapitalGains.TotalGain); err != nil {
		return "", err
	}
	if err := moneyLine("应税所得", result.CapitalGains.TaxableGain); err != nil {
		return "", err
	}
	if err := moneyLine(taxRateLabel("应纳税额"), result.CapitalGains.TaxAmount); err != nil {
		return "", err
	}
	if hasEstimatedCost {
		line("  ※ 含跨年持仓，成本使用期初市价估算")
	}
	line("")

	line(light)
	line("二、股息、红利所得")
	line(light)
	line("  股息笔数：%d 笔", len(result.DividendTax.Details))
	if err := moneyLine("股息总额", result.DividendTax.TotalDividend); err != nil {
		return "", err
	}
	if err := moneyLine(taxRateLabel("应纳税额"), result.DividendTax.GrossTax); err != nil {
		return "", err
	}
	if err := moneyLine("境外已扣税", result.DividendTax.ForeignTaxPaid); err != nil {
		return "", err
	}
	if err := moneyLine("可抵免税额", result.DividendTax.TaxCredit); err != nil {
		return "", err
	}
	if err := moneyLine("实际应补税", result.DividendTax.NetTaxDue); err != nil {
		return "", err
	}
	line("")

	line(light)
	line("三、利息所得")
	line(light)
	if err := moneyLine("利息总额", result.InterestTax.TotalInterest); err != nil {
		return "", err
	}
	if err := moneyLine(taxRateLabel("应纳税额"), result.InterestTax.TaxAmount); err != nil {
		return "", err
	}
	line("")

	line(heavy)
	line("  汇  总")
	line(heavy)
	if err := moneyLine("应纳税总额", result.Summary.TotalTaxDue); err != nil {
		return "", err
	}
	if err := moneyLine("可抵免总额", result.Summary.TotalTaxCredit); err != nil {
		return "", err
	}
	line("  %s", strings.Repeat("─", 32))
	if err := moneyLine("实际应缴税额", result.Summary.NetTaxPayable); err != nil {
		return "", err
	}
	line("")
	line("※ 本报告仅供参考，不构成税务建议。")
	line("  请以税务机关最终核定为准。")

	return b.String(), nil
}

func taxRateLabel(label string) string {
	pct := TaxRate.Mul(decimal.NewFromInt(100))
	return fmt.Sprintf("%s（%s%%）", label, pct.String())
}
