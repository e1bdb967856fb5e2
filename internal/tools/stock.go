package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// symbolCorrections maps common shorthand to exchange-qualified tickers.
var symbolCorrections = map[string]string{
	"LICIND.NS":  "LICI.NS",
	"LIC":        "LICI.NS",
	"RELIANCE":   "RELIANCE.NS",
	"TCS":        "TCS.NS",
	"INFY":       "INFY.NS",
	"HDFCBANK":   "HDFCBANK.NS",
	"SBI":        "SBIN.NS",
	"SBIN":       "SBIN.NS",
	"TATAMOTORS": "TATAMOTORS.NS",
	"ZOMATO":     "ZOMATO.NS",
}

// StockTool quotes the last traded price from the Yahoo Finance chart API.
type StockTool struct {
	http    httpDoer
	baseURL string
}

// NewStockTool creates a stock quote tool
func NewStockTool(opts HTTPOptions) *StockTool {
	return &StockTool{
		http:    newHTTPDoer(opts),
		baseURL: "https://query1.finance.yahoo.com",
	}
}

func (t *StockTool) Name() string {
	return "stock_tool"
}

func (t *StockTool) Description() string {
	return "Fetches stock price for a given symbol. Use .NS for NSE (e.g. RELIANCE.NS) and .BO for BSE (e.g. TCS.BO). Args: symbol (str)"
}

func (t *StockTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "symbol",
			Type:        "string",
			Description: "The stock symbol (e.g., AAPL, RELIANCE.NS, TCS.BO)",
			Required:    true,
		},
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				Currency           string   `json:"currency"`
				LongName           string   `json:"longName"`
				ShortName          string   `json:"shortName"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

type quote struct {
	price    float64
	currency string
	name     string
}

func (t *StockTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	symbol := stringArg(args, "symbol")
	if symbol == "" {
		return "", fmt.Errorf("missing required parameter: symbol")
	}

	clean := NormalizeSymbol(symbol)
	q, err := t.fetch(ctx, clean)
	if err != nil {
		return "", err
	}

	// Unqualified tickers default to NSE.
	if q == nil && !strings.Contains(clean, ".") {
		clean += ".NS"
		if q, err = t.fetch(ctx, clean); err != nil {
			return "", err
		}
	}

	if q == nil {
		return fmt.Sprintf("No stock data found for symbol: %s. Ensure correct suffix (.NS for NSE, .BO for BSE).", symbol), nil
	}

	currency := q.currency
	if currency == "" {
		currency = "INR"
	}
	name := q.name
	if name == "" {
		name = clean
	}
	return fmt.Sprintf("Stock: %s (%s)\nPrice: %s %.2f", name, clean, currency, q.price), nil
}

// fetch returns nil when the symbol has no quote.
func (t *StockTool) fetch(ctx context.Context, symbol string) (*quote, error) {
	params := url.Values{}
	params.Set("range", "1d")
	params.Set("interval", "1d")

	var payload chartResponse
	endpoint := t.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()
	status, _, err := t.http.getJSON(ctx, endpoint, nil, &payload)
	if err != nil {
		return nil, fmt.Errorf("stock quote failed: %w", err)
	}
	if status != 200 || len(payload.Chart.Result) == 0 {
		return nil, nil
	}

	meta := payload.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return nil, nil
	}
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	return &quote{price: *meta.RegularMarketPrice, currency: meta.Currency, name: name}, nil
}

// NormalizeSymbol upper-cases a ticker and applies the corrections table.
func NormalizeSymbol(symbol string) string {
	clean := strings.ToUpper(strings.TrimSpace(symbol))
	if corrected, ok := symbolCorrections[clean]; ok {
		return corrected
	}
	return clean
}
