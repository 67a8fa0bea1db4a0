// internal/tools/price/adapter.go
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	commonhttp "coincoach-backend/internal/common/http"
	"coincoach-backend/internal/common/genai"
	"coincoach-backend/internal/common/logger"
)

// aliases maps lowercase coin names and tickers to canonical identifiers.
// The table is fixed; symbols that collide across assets are omitted so a
// miss always means "unknown or ambiguous".
var aliases = map[string]string{
	"bitcoin":   "bitcoin",
	"btc":       "bitcoin",
	"ethereum":  "ethereum",
	"eth":       "ethereum",
	"solana":    "solana",
	"sol":       "solana",
	"cardano":   "cardano",
	"ada":       "cardano",
	"ripple":    "ripple",
	"xrp":       "ripple",
	"dogecoin":  "dogecoin",
	"doge":      "dogecoin",
	"shiba inu": "shiba-inu",
	"shib":      "shiba-inu",
	"pepe":      "pepe",
	"avalanche": "avalanche-2",
	"avax":      "avalanche-2",
	"polkadot":  "polkadot",
	"dot":       "polkadot",
	"chainlink": "chainlink",
	"link":      "chainlink",
	"polygon":   "matic-network",
	"matic":     "matic-network",
	"litecoin":  "litecoin",
	"ltc":       "litecoin",
	"tron":      "tron",
	"trx":       "tron",
	"bonk":      "bonk",
	"dogwifhat": "dogwifhat",
	"wif":       "dogwifhat",
	"floki":     "floki",
}

// Result is the tool payload handed back to the model. Exactly one of
// Price or Error is meaningful; Error is never empty on failure.
type Result struct {
	CoinID string   `json:"coinId"`
	Price  *float64 `json:"price,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Lookup resolves coin names to canonical identifiers and fetches the
// current USD price. Stateless; safe for concurrent use.
type Lookup struct {
	httpClient *commonhttp.Client
	baseURL    string
	logger     logger.Logger
}

func NewLookup(httpClient *commonhttp.Client, baseURL string, log logger.Logger) *Lookup {
	return &Lookup{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log,
	}
}

// Current returns the USD price for a coin name or ticker. All failures
// land in Result.Error; the method never returns a Go error because it
// runs synchronously inside a model generation step.
func (l *Lookup) Current(ctx context.Context, nameOrSymbol string) Result {
	normalized := strings.ToLower(strings.TrimSpace(nameOrSymbol))

	coinID, ok := aliases[normalized]
	if !ok {
		return Result{
			CoinID: normalized,
			Error:  fmt.Sprintf("Coin '%s' not found in the supported list or symbol is ambiguous.", normalized),
		}
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", l.baseURL, url.QueryEscape(coinID))
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{CoinID: coinID, Error: fmt.Sprintf("Price request could not be built: %v", err)}
	}

	resp, err := l.httpClient.DoWithContext(ctx, req)
	if err != nil {
		l.logger.WithError(err).Warn("price lookup request failed", map[string]interface{}{
			"coin_id": coinID,
		})
		return Result{CoinID: coinID, Error: fmt.Sprintf("Price request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{CoinID: coinID, Error: fmt.Sprintf("Price response could not be read: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{CoinID: coinID, Error: fmt.Sprintf("Price API returned status %d", resp.StatusCode)}
	}
	if !gjson.ValidBytes(body) {
		return Result{CoinID: coinID, Error: "Price API returned malformed JSON"}
	}

	usd := gjson.GetBytes(body, coinID+".usd")
	if !usd.Exists() || usd.Type != gjson.Number {
		return Result{CoinID: coinID, Error: fmt.Sprintf("Price API response missing usd price for '%s'", coinID)}
	}

	price := usd.Float()
	return Result{CoinID: coinID, Price: &price}
}

// Tool exposes the lookup as a model-callable tool.
func (l *Lookup) Tool() genai.Tool {
	return genai.Tool{
		Name:        "get_coin_price",
		Description: "Look up the current USD price of a cryptocurrency by name or ticker symbol.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"coinNameOrSymbol": map[string]interface{}{
					"type":        "string",
					"description": "Coin name or ticker, e.g. 'bitcoin' or 'BTC'",
				},
			},
			"required": []string{"coinNameOrSymbol"},
		},
		Call: func(ctx context.Context, args string) (string, error) {
			coin := gjson.Get(args, "coinNameOrSymbol").String()
			result := l.Current(ctx, coin)
			payload, err := json.Marshal(result)
			if err != nil {
				return "", err
			}
			return string(payload), nil
		},
	}
}
