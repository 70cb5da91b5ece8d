package overseastax

// Currency identifies one of the three supported settlement currencies.
type Currency string

const (
	CNY Currency = "CNY"
	USD Currency = "USD"
	HKD Currency = "HKD"
)

// Currencies lists every supported currency. CNY is the tax-base currency:
// all final liabilities are computed in it regardless of where the income
// was earned.
var Currencies = []Currency{CNY, USD, HKD}

// Money is a signed amount in an explicit currency. Summing raw amounts
// across different currencies is never valid; cross-currency math goes
// through RateTable.Convert.
type Money struct {
	Amount   Amount   `json:"amount"`
	Currency Currency `json:"currency"`
}

// NewMoney builds a Money value.
func NewMoney(amount Amount, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// TradeDirection is the normalized side of a fill.
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "BUY"
	DirectionSell TradeDirection = "SELL"
)

// InstrumentCategory separates equity-like instruments from option-like
// ones. Gains are never netted across categories mid-calculation.
type InstrumentCategory string

const (
	CategorySecurity InstrumentCategory = "SECURITY"
	CategoryOption   InstrumentCategory = "OPTION"
)

// PeriodType tags a holding snapshot as taken at the first or last instant
// of the tax year.
type PeriodType string

const (
	PeriodStart PeriodType = "START"
	PeriodEnd   PeriodType = "END"
)

// FileType classifies an input bill. Only annual statements participate in
// tax math; dividend summaries exist for cross-checking.
type FileType string

const (
	FileTypeAnnual          FileType = "annual"
	FileTypeDividendSummary FileType = "dividend_summary"
)

// Transaction is a single normalized trade fill. TradeAmount already
// includes any per-unit multiplier (option contract multipliers are applied
// by the statement, not by this engine).
type Transaction struct {
	TradeTime    string             `json:"trade_time"` // "2006-01-02 15:04:05"
	Symbol       string             `json:"symbol"`
	Market       string             `json:"market"`
	Category     InstrumentCategory `json:"category"`
	Direction    TradeDirection     `json:"direction"`
	Currency     Currency           `json:"currency"`
	Quantity     Amount             `json:"quantity"` // unsigned magnitude
	Price        Amount             `json:"price"`
	TradeAmount  Amount             `json:"trade_amount"`
	TotalFee     Amount             `json:"total_fee"`
	ChangeAmount Amount             `json:"change_amount"` // signed net cash change
}

// Holding is a position snapshot for a tax year. Period-start holdings act
// as the cost-basis source for positions carried over from prior years.
type Holding struct {
	PeriodType  PeriodType         `json:"period_type"`
	Date        string             `json:"date"` // YYYYMMDD
	Category    InstrumentCategory `json:"category"`
	Symbol      string             `json:"symbol"`
	Market      string             `json:"market"`
	Currency    Currency           `json:"currency"`
	Quantity    Amount             `json:"quantity"`
	Price       Amount             `json:"price"`
	Multiplier  Amount             `json:"multiplier"`
	MarketValue Amount             `json:"market_value"`
}

// DividendRecord is one dividend payment with foreign withholding.
type DividendRecord struct {
	Date              string   `json:"date"`
	Symbol            string   `json:"symbol"`
	Currency          Currency `json:"currency"`
	Quantity          Amount   `json:"quantity"`
	DividendPerShare  Amount   `json:"dividend_per_share"`
	GrossAmount       Amount   `json:"gross_amount"`
	WithholdingTax    Amount   `json:"withholding_tax"`
	NetAmount         Amount   `json:"net_amount"`
}

// InterestRecord is one interest payment. Purely additive, no lot matching.
type InterestRecord struct {
	Date     string   `json:"date"`
	Currency Currency `json:"currency"`
	Amount   Amount   `json:"amount"`
	Source   string   `json:"source"`
}

// Bill is a normalized brokerage statement, already parsed and typed by the
// ingestion collaborator. Malformed rows never reach this engine.
type Bill struct {
	Year         int              `json:"year"`
	FileName     string           `json:"file_name"`
	FileType     FileType         `json:"file_type"`
	Transactions []Transaction    `json:"transactions"`
	Dividends    []DividendRecord `json:"dividends"`
	Interests    []InterestRecord `json:"interests"`
	Holdings     []Holding        `json:"holdings"`
}

// CapitalGainDetail is one matched buy/sell lot pair.
type CapitalGainDetail struct {
	Symbol          string             `json:"symbol"`
	Market          string             `json:"market"`
	Category        InstrumentCategory `json:"category"`
	BuyDate         string             `json:"buy_date"`
	SellDate        string             `json:"sell_date"`
	Quantity        Amount             `json:"quantity"`
	BuyPrice        Amount             `json:"buy_price"`
	SellPrice       Amount             `json:"sell_price"`
	BuyAmount       Money              `json:"buy_amount"`
	SellAmount      Money              `json:"sell_amount"`
	Fees            Money              `json:"fees"`
	Gain            Money              `json:"gain"`
	GainCNY         Money              `json:"gain_cny"`
	IsEstimatedCost bool               `json:"is_estimated_cost"`
}

// CurrencySummary aggregates realized gains per original currency.
type CurrencySummary struct {
	Currency     Currency `json:"currency"`
	TotalGain    Amount   `json:"total_gain"`
	TotalGainCNY Amount   `json:"total_gain_cny"`
}

// CapitalGainsTax is the capital-gains engine output for one year.
type CapitalGainsTax struct {
	TotalGain   Money               `json:"total_gain"`   // CNY, sign-preserving
	TaxableGain Money               `json:"taxable_gain"` // max(0, total)
	TaxAmount   Money               `json:"tax_amount"`
	ByCurrency  []CurrencySummary   `json:"by_currency"`
	Details     []CapitalGainDetail `json:"details"`
}

// DividendCurrencySummary aggregates dividends per original currency, kept
// both raw (for statement cross-checking) and converted (for the credit
// limitation math).
type DividendCurrencySummary struct {
	Currency          Currency `json:"currency"`
	TotalDividend     Amount   `json:"total_dividend"`
	WithholdingTax    Amount   `json:"withholding_tax"`
	TotalDividendCNY  Amount   `json:"total_dividend_cny"`
	WithholdingTaxCNY Amount   `json:"withholding_tax_cny"`
}

// DividendTax is the dividend engine output for one year.
type DividendTax struct {
	TotalDividend  Money                     `json:"total_dividend"`
	ForeignTaxPaid Money                     `json:"foreign_tax_paid"`
	TaxCredit      Money                     `json:"tax_credit"`
	GrossTax       Money                     `json:"gross_tax"`
	NetTaxDue      Money                     `json:"net_tax_due"`
	ByCurrency     []DividendCurrencySummary `json:"by_currency"`
	Details        []DividendRecord          `json:"details"`
}

// InterestTax is the interest engine output for one year.
type InterestTax struct {
	TotalInterest Money            `json:"total_interest"`
	TaxAmount     Money            `json:"tax_amount"`
	Details       []InterestRecord `json:"details"`
}

// TaxSummary combines the three engines' liabilities.
type TaxSummary struct {
	TotalTaxDue    Money `json:"total_tax_due"`
	TotalTaxCredit Money `json:"total_tax_credit"`
	NetTaxPayable  Money `json:"net_tax_payable"`
}

// AnnualReturnCurrency is the mark-to-market view for one currency.
type AnnualReturnCurrency struct {
	Currency   Currency `json:"currency"`
	StartValue Amount   `json:"start_value"`
	EndValue   Amount   `json:"end_value"`
	CashFlow   Amount   `json:"cash_flow"`
	Return     Amount   `json:"return"`
}

// AnnualReturn is the mark-to-market economic performance view. It includes
// unrealized gains and is never a substitute for the taxable gain.
type AnnualReturn struct {
	StartMarketValue  Money                  `json:"start_market_value"`
	EndMarketValue    Money                  `json:"end_market_value"`
	NetCashFlow       Money                  `json:"net_cash_flow"`
	TotalReturn       Money                  `json:"total_return"`
	DividendIncome    Money                  `json:"dividend_income"`
	TotalWithDividend Money                  `json:"total_with_dividend"`
	ByCurrency        []AnnualReturnCurrency `json:"by_currency"`
}

// TaxResult is the complete per-year output. Created once per year by the
// orchestrator and immutable thereafter.
type TaxResult struct {
	Year         int             `json:"year"`
	ExchangeRate RateEntry       `json:"exchange_rate"`
	CapitalGains CapitalGainsTax `json:"capital_gains"`
	DividendTax  DividendTax     `json:"dividend_tax"`
	InterestTax  InterestTax     `json:"interest_tax"`
	Summary      TaxSummary      `json:"summary"`
	AnnualReturn *AnnualReturn   `json:"annual_return,omitempty"`
}
