// Package plaid pulls recent payments from a Plaid-linked bank account.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/Veraticus/smarttrack/internal/service"
	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	// pageSize is the largest page /transactions/get returns.
	pageSize = int32(500)
)

var errNoAccessToken = errors.New("plaid access token is required")

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
	// BaseURL overrides the environment's API host.
	BaseURL string
}

func (c *Config) validateCredentials() error {
	switch {
	case c.ClientID == "":
		return fmt.Errorf("plaid client ID is required")
	case c.Secret == "":
		return fmt.Errorf("plaid secret is required")
	case c.Environment == "":
		return fmt.Errorf("plaid environment is required")
	case c.Environment != "sandbox" && c.Environment != "production":
		return fmt.Errorf("invalid Plaid environment: must be sandbox or production")
	}
	return nil
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if err := c.validateCredentials(); err != nil {
		return err
	}
	if c.AccessToken == "" {
		return errNoAccessToken
	}
	return nil
}

// Client fetches payments through the Plaid API.
type Client struct {
	api         *plaid.PlaidApiService
	logger      *slog.Logger
	retry       service.RetryOptions
	accessToken string
	environment string
}

// NewClient creates a Plaid client. The access token may be empty for the
// Link token exchange.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validateCredentials(); err != nil {
		return nil, err
	}

	conf := plaid.NewConfiguration()
	conf.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	conf.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	if cfg.Environment == "production" {
		conf.UseEnvironment(plaid.Production)
	} else {
		conf.UseEnvironment(plaid.Sandbox)
	}
	if cfg.BaseURL != "" {
		conf.Servers = plaid.ServerConfigurations{{URL: cfg.BaseURL}}
	}

	return &Client{
		api:         plaid.NewAPIClient(conf).PlaidApi,
		accessToken: cfg.AccessToken,
		environment: cfg.Environment,
		logger:      slog.Default().With("component", "plaid"),
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		},
	}, nil
}

// call runs one API request. Transport failures and rate limits are retried;
// other Plaid API errors are not.
func (c *Client) call(ctx context.Context, what string, request func() error) error {
	return common.WithRetry(ctx, func() error {
		err := request()
		if err == nil {
			return nil
		}
		perr, convErr := plaid.ToPlaidError(err)
		if convErr != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to %s: %w", what, err), Retryable: true}
		}
		apiErr := fmt.Errorf("plaid API error: %s - %s", perr.ErrorCode, perr.ErrorMessage)
		if perr.ErrorCode == "RATE_LIMIT_EXCEEDED" {
			c.logger.Warn("Rate limit hit, will retry", "error", perr.ErrorMessage)
			return &common.RetryableError{Err: apiErr, Retryable: true}
		}
		return &common.RetryableError{Err: apiErr}
	}, c.retry)
}

// GetTransactions fetches settled outgoing payments within the date range,
// oldest first.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]Payment, error) {
	if c.accessToken == "" {
		return nil, errNoAccessToken
	}
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	from, to := startDate.Format(dateLayout), endDate.Format(dateLayout)
	c.logger.Info("Fetching transactions from Plaid", "start_date", from, "end_date", to)

	var payments []Payment
	fetched := 0
	for offset := int32(0); ; offset += pageSize {
		var page []plaid.Transaction
		err := c.call(ctx, "fetch transactions", func() error {
			req := plaid.NewTransactionsGetRequest(c.accessToken, from, to)
			req.SetOptions(plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			})
			resp, _, err := c.api.TransactionsGet(ctx).TransactionsGetRequest(*req).Execute()
			if err != nil {
				return err
			}
			page = resp.GetTransactions()
			c.logger.Debug("Fetched transaction page",
				"count", len(page),
				"offset", offset,
				"total", resp.GetTotalTransactions())
			return nil
		})
		if err != nil {
			return nil, err
		}

		fetched += len(page)
		for _, pt := range page {
			if p, ok := c.toPayment(pt); ok {
				payments = append(payments, p)
			}
		}
		if len(page) < int(pageSize) {
			break
		}
	}
	SortOldestFirst(payments)

	c.logger.Info("Fetched all transactions", "count", fetched, "payments", len(payments))
	return payments, nil
}

// GetAccounts lists the account IDs behind the access token.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	if c.accessToken == "" {
		return nil, errNoAccessToken
	}

	var accounts []plaid.AccountBase
	err := c.call(ctx, "fetch accounts", func() error {
		req := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.api.AccountsGet(ctx).AccountsGetRequest(*req).Execute()
		if err != nil {
			return err
		}
		accounts = resp.GetAccounts()
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.GetAccountId())
	}
	return ids, nil
}

// toPayment converts a Plaid transaction into a payment. Pending entries and
// money coming in are skipped.
func (c *Client) toPayment(pt plaid.Transaction) (Payment, bool) {
	// Plaid reports outflows as positive amounts.
	if pt.GetPending() || pt.GetAmount() <= 0 {
		return Payment{}, false
	}

	date, err := time.Parse(dateLayout, pt.GetDate())
	if err != nil {
		c.logger.Warn("Failed to parse transaction date", "date", pt.GetDate(), "error", err)
		date = time.Now()
	}

	merchant := pt.GetMerchantName()
	registered := merchant != ""
	if !registered {
		merchant = pt.GetName()
	}
	if merchant = cleanMerchantName(merchant); merchant == "" {
		merchant = "Unknown payee"
	}

	pfc := pt.GetPersonalFinanceCategory()
	suggested, _ := SuggestCategory(pfc.Primary, pfc.Detailed)

	return Payment{
		Date:      date,
		AccountID: pt.GetAccountId(),
		Name:      pt.GetName(),
		Suggested: suggested,
		Pending: model.PendingCategorization{
			ID:                   pt.GetTransactionId(),
			OccurredAt:           date,
			Amount:               decimal.NewFromFloat(pt.GetAmount()).Round(2),
			MerchantName:         merchant,
			PaymentMode:          model.PaymentModeFor(registered),
			SourceID:             sourceID(pt.GetTransactionId()),
			IsRegisteredMerchant: registered,
		},
	}, true
}

func sourceID(transactionID string) string {
	if transactionID == "" {
		return ""
	}
	return "plaid:" + transactionID
}

// legalSuffixes are dropped from the end of merchant names.
var legalSuffixes = map[string]bool{
	"Llc": true, "Inc": true, "Corp": true, "Corporation": true, "Company": true,
	"Co": true, "Ltd": true, "Limited": true, "Pvt": true, "Private": true,
}

// cleanMerchantName title-cases a bank description and drops a trailing
// reference number and legal suffixes: "ZOMATO PVT LTD" becomes "Zomato".
func cleanMerchantName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, w := range words {
		words[i] = titleWord(w)
	}

	if n := len(words); n > 1 && len(words[n-1]) > 5 && isAllDigits(words[n-1]) {
		words = words[:n-1]
	}
	for len(words) > 0 && legalSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// titleWord upper-cases every letter that does not follow another letter, so
// "7-eleven" becomes "7-Eleven".
func titleWord(w string) string {
	runes := []rune(w)
	for i, r := range runes {
		if i == 0 || !unicode.IsLetter(runes[i-1]) {
			runes[i] = unicode.ToUpper(r)
		}
	}
	return string(runes)
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CreateLinkToken creates a Link token for Plaid Link initialization.
func (c *Client) CreateLinkToken(ctx context.Context) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: "smarttrack-" + time.Now().Format("20060102150405"),
	}
	req := plaid.NewLinkTokenCreateRequest(
		"SmartTrack",
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US, plaid.COUNTRYCODE_GB},
		user,
	)
	req.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})
	// OAuth institutions require a redirect URI registered in the dashboard.
	if c.environment == "production" {
		req.SetRedirectUri("https://localhost:8080/")
	}

	var token string
	err := c.call(ctx, "create link token", func() error {
		resp, _, err := c.api.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
		if err != nil {
			return err
		}
		token = resp.GetLinkToken()
		return nil
	})
	return token, err
}

// ExchangePublicToken trades a Link public token for an access token and
// item ID.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.api.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		if perr, convErr := plaid.ToPlaidError(err); convErr == nil {
			return "", "", fmt.Errorf("plaid API error: %s - %s", perr.ErrorCode, perr.ErrorMessage)
		}
		return "", "", fmt.Errorf("failed to exchange public token: %w", err)
	}
	return resp.GetAccessToken(), resp.GetItemId(), nil
}

var _ TransactionFetcher = (*Client)(nil)
