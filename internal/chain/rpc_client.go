package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"club-token-engine/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second

	// DefaultMaxRetries is zero: a pricing computation must reflect a
	// single consistent read, so retrying is the caller's decision.
	// Ingestion-side callers opt in with WithMaxRetries.
	DefaultMaxRetries = 0

	defaultBackoffMult = 2.0
)

// HTTPClient implements Reader using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new chain read client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: defaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Reader = (*HTTPClient)(nil)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call. Transport failures are classified into
// the upstream taxonomy; when retries are enabled they back off
// exponentially.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return classifyTransport(ctx.Err())
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = classifyTransport(err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = classifyTransport(err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%w: rate limited (429)", ErrUpstreamUnavailable)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("%w: unexpected status %d", ErrUpstreamUnavailable, resp.StatusCode)
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("%w: unmarshal response: %v", ErrUpstreamUnavailable, err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC-level errors are never retried.
			if rpcResp.Error.Code == rpcCodeNotFound {
				return fmt.Errorf("%w: %s", ErrNotFound, rpcResp.Error.Message)
			}
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return lastErr
}

// getClubStateResult is the raw RPC response for getClubState.
type getClubStateResult struct {
	ClubID    string `json:"clubId"`
	Creator   string `json:"creator"`
	Supply    string `json:"supply"`
	Reserve   string `json:"reserve"`
	Holders   int    `json:"holders"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"createdAt"`
}

// ClubState retrieves a club's current curve state.
func (c *HTTPClient) ClubState(ctx context.Context, clubID string) (*domain.Club, error) {
	if err := ValidateAddress(clubID); err != nil {
		return nil, err
	}

	var result getClubStateResult
	if err := c.call(ctx, "getClubState", []interface{}{clubID}, &result); err != nil {
		return nil, err
	}

	supply, err := parseAmount(result.Supply, "supply")
	if err != nil {
		return nil, err
	}
	reserve, err := parseAmount(result.Reserve, "reserve")
	if err != nil {
		return nil, err
	}

	return &domain.Club{
		ClubID:    clubID,
		Creator:   result.Creator,
		Supply:    supply,
		Reserve:   reserve,
		Holders:   result.Holders,
		Completed: result.Completed,
		CreatedAt: result.CreatedAt,
	}, nil
}

// getVestingGrantResult is the raw RPC response for getVestingGrant.
type getVestingGrantResult struct {
	Beneficiary     string `json:"beneficiary"`
	TokenAddress    string `json:"tokenAddress"`
	TotalAllocated  string `json:"totalAllocated"`
	Claimed         string `json:"claimed"`
	StartTime       int64  `json:"startTime"`
	CliffDuration   int64  `json:"cliffDuration"`
	VestingDuration int64  `json:"vestingDuration"`
}

// VestingGrant retrieves a holder's grant for a token.
func (c *HTTPClient) VestingGrant(ctx context.Context, tokenAddress, beneficiary string) (*domain.VestingGrant, error) {
	if err := ValidateAddress(tokenAddress); err != nil {
		return nil, err
	}
	if err := ValidateAddress(beneficiary); err != nil {
		return nil, err
	}

	var result getVestingGrantResult
	if err := c.call(ctx, "getVestingGrant", []interface{}{tokenAddress, beneficiary}, &result); err != nil {
		return nil, err
	}

	total, err := parseAmount(result.TotalAllocated, "totalAllocated")
	if err != nil {
		return nil, err
	}
	claimed, err := parseAmount(result.Claimed, "claimed")
	if err != nil {
		return nil, err
	}

	return &domain.VestingGrant{
		Beneficiary:     beneficiary,
		TokenAddress:    tokenAddress,
		TotalAllocated:  total,
		Claimed:         claimed,
		StartTime:       result.StartTime,
		CliffDuration:   result.CliffDuration,
		VestingDuration: result.VestingDuration,
	}, nil
}

// getLiquidityPositionResult is the raw RPC response for getLiquidityPosition.
type getLiquidityPositionResult struct {
	Pool      string `json:"pool"`
	TickLower int32  `json:"tickLower"`
	TickUpper int32  `json:"tickUpper"`
	Liquidity string `json:"liquidity"`
}

// LiquidityPosition retrieves a CLMM position by its position mint.
func (c *HTTPClient) LiquidityPosition(ctx context.Context, positionMint string) (*domain.LiquidityPosition, error) {
	if err := ValidateAddress(positionMint); err != nil {
		return nil, err
	}

	var result getLiquidityPositionResult
	if err := c.call(ctx, "getLiquidityPosition", []interface{}{positionMint}, &result); err != nil {
		return nil, err
	}

	liquidity, err := parseAmount(result.Liquidity, "liquidity")
	if err != nil {
		return nil, err
	}

	return &domain.LiquidityPosition{
		PositionMint: positionMint,
		Pool:         result.Pool,
		TickLower:    result.TickLower,
		TickUpper:    result.TickUpper,
		Liquidity:    liquidity,
	}, nil
}

// getStakeRecordResult is the raw RPC response for getStakeRecord.
type getStakeRecordResult struct {
	SecondsInsideTotal int64 `json:"secondsInsideTotal"`
}

// StakeRecord retrieves a position's stake against an incentive.
func (c *HTTPClient) StakeRecord(ctx context.Context, positionMint, incentiveKey string) (*domain.StakeRecord, error) {
	if err := ValidateAddress(positionMint); err != nil {
		return nil, err
	}

	var result getStakeRecordResult
	if err := c.call(ctx, "getStakeRecord", []interface{}{positionMint, incentiveKey}, &result); err != nil {
		return nil, err
	}

	return &domain.StakeRecord{
		PositionMint:       positionMint,
		IncentiveKey:       incentiveKey,
		SecondsInsideTotal: result.SecondsInsideTotal,
	}, nil
}

// getIncentiveResult is the raw RPC response for getIncentive.
type getIncentiveResult struct {
	Pool                string `json:"pool"`
	RewardToken         string `json:"rewardToken"`
	StartTime           int64  `json:"startTime"`
	EndTime             int64  `json:"endTime"`
	RewardRatePerSecond string `json:"rewardRatePerSecond"`
	RewardPoolRemaining string `json:"rewardPoolRemaining"`
	TotalLiquidity      string `json:"totalLiquidity"`
}

// Incentive retrieves an incentive program by key.
func (c *HTTPClient) Incentive(ctx context.Context, incentiveKey string) (*domain.Incentive, error) {
	var result getIncentiveResult
	if err := c.call(ctx, "getIncentive", []interface{}{incentiveKey}, &result); err != nil {
		return nil, err
	}

	rate, err := parseAmount(result.RewardRatePerSecond, "rewardRatePerSecond")
	if err != nil {
		return nil, err
	}
	remaining, err := parseAmount(result.RewardPoolRemaining, "rewardPoolRemaining")
	if err != nil {
		return nil, err
	}
	totalLiquidity, err := parseAmount(result.TotalLiquidity, "totalLiquidity")
	if err != nil {
		return nil, err
	}

	return &domain.Incentive{
		Key:                 incentiveKey,
		Pool:                result.Pool,
		RewardToken:         result.RewardToken,
		StartTime:           result.StartTime,
		EndTime:             result.EndTime,
		RewardRatePerSecond: rate,
		RewardPoolRemaining: remaining,
		TotalLiquidity:      totalLiquidity,
	}, nil
}

// parseAmount parses a decimal-string amount field. Amounts cross the
// wire as strings to preserve precision through JSON. Chain amounts are
// unsigned, so a negative value means a corrupt or hostile response.
func parseAmount(s, field string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("malformed %s amount %q", field, s)
	}
	return v, nil
}
