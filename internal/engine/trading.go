package engine

import (
	"context"
	"math/big"
	"sync"
	"time"

	"club-token-engine/internal/analytics"
	"club-token-engine/internal/domain"
	"club-token-engine/internal/fixedpoint"
)

// BuyPrice is a simulated curve buy.
type BuyPrice struct {
	TokensOut      string // whole tokens, decimal string
	EffectivePrice string // quote per whole token across the fill
}

// SellPrice is a simulated curve sell.
type SellPrice struct {
	QuoteOut       string // quote received, decimal string
	EffectivePrice string
}

// PriceDelta is a signed percentage move over one snapshot window.
type PriceDelta struct {
	Positive bool
	ValuePct string // unsigned, two fractional digits
}

// TradingInfo is the club overview the product surfaces on a token page.
// Windows without a recorded snapshot are absent from PriceDeltas.
type TradingInfo struct {
	ClubID      string
	CreatedAt   int64
	BuyPrice    string // spot price; empty once graduated
	Volume24h   string
	Liquidity   string
	MarketCap   string
	Holders     int
	Graduated   bool
	PriceDeltas map[domain.SnapshotWindow]PriceDelta
}

// GetBuyPrice simulates spending quoteAmountIn against the club's curve.
// Returns GraduatedCurve once the club trades on open liquidity.
func (e *Engine) GetBuyPrice(ctx context.Context, clubID, quoteAmountIn string) (_ *BuyPrice, retErr error) {
	defer observe("get_buy_price", time.Now(), &retErr)

	quoteIn, perr := parseAmount(quoteAmountIn, domain.QuoteDecimals)
	if perr != nil {
		return nil, perr
	}

	club, err := e.clubState(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if club.Graduated() {
		return nil, &Error{Kind: KindGraduatedCurve, Message: "club " + clubID + " trades on open liquidity"}
	}

	quote, qerr := e.pricer.BuyQuote(club.Supply, quoteIn)
	if qerr != nil {
		return nil, classify(qerr)
	}

	return &BuyPrice{
		TokensOut:      formatTokens(quote.TokensOut),
		EffectivePrice: formatQuote(quote.EffectivePrice),
	}, nil
}

// GetSellPrice simulates selling tokenAmountIn back into the curve
// reserve.
func (e *Engine) GetSellPrice(ctx context.Context, clubID, tokenAmountIn string) (_ *SellPrice, retErr error) {
	defer observe("get_sell_price", time.Now(), &retErr)

	tokensIn, perr := parseAmount(tokenAmountIn, domain.TokenDecimals)
	if perr != nil {
		return nil, perr
	}

	club, err := e.clubState(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if club.Graduated() {
		return nil, &Error{Kind: KindGraduatedCurve, Message: "club " + clubID + " trades on open liquidity"}
	}

	quote, qerr := e.pricer.SellQuote(club.Supply, tokensIn)
	if qerr != nil {
		return nil, classify(qerr)
	}

	return &SellPrice{
		QuoteOut:       formatQuote(quote.QuoteAmount),
		EffectivePrice: formatQuote(quote.EffectivePrice),
	}, nil
}

// GetTradingInfo assembles the club overview. Club state and 24h volume
// are required reads; snapshot history and the last trade price are
// optional and degrade to omission.
func (e *Engine) GetTradingInfo(ctx context.Context, clubID string) (_ *TradingInfo, retErr error) {
	defer observe("get_trading_info", time.Now(), &retErr)

	nowMs := e.now().UnixMilli()
	since := nowMs - domain.Window24h.Lookback().Milliseconds()

	var (
		wg        sync.WaitGroup
		club      *domain.Club
		volume    *big.Int
		snapshots []*domain.PriceSnapshot
		lastPrice *big.Int
	)
	required := make(chan error, 2)

	wg.Add(4)
	go func() {
		defer wg.Done()
		rctx, cancel := e.withDeadline(ctx)
		defer cancel()
		c, err := e.reader.ClubState(rctx, clubID)
		if err != nil {
			required <- err
			return
		}
		club = c
	}()
	go func() {
		defer wg.Done()
		rctx, cancel := e.withDeadline(ctx)
		defer cancel()
		v, err := e.trades.VolumeSince(rctx, clubID, since)
		if err != nil {
			required <- err
			return
		}
		volume = v
	}()
	go func() {
		defer wg.Done()
		rctx, cancel := e.withDeadline(ctx)
		defer cancel()
		snaps, err := e.snaps.Latest(rctx, clubID)
		if err != nil {
			e.logger.Printf("trading info %s: snapshot read failed, omitting deltas: %v", clubID, err)
			return
		}
		snapshots = snaps
	}()
	go func() {
		defer wg.Done()
		rctx, cancel := e.withDeadline(ctx)
		defer cancel()
		p, err := e.trades.LastPriceAt(rctx, clubID, nowMs)
		if err != nil {
			// Clubs without trades have no last price; that is not a
			// failure of the overview.
			return
		}
		lastPrice = p
	}()
	wg.Wait()

	select {
	case err := <-required:
		return nil, classify(err)
	default:
	}

	graduated := club.Graduated() || e.pricer.Graduated(club.Supply)

	var currentPrice *big.Int
	info := &TradingInfo{
		ClubID:      clubID,
		CreatedAt:   club.CreatedAt,
		Volume24h:   formatQuote(volume),
		Liquidity:   formatQuote(club.Reserve),
		Holders:     club.Holders,
		Graduated:   graduated,
		PriceDeltas: make(map[domain.SnapshotWindow]PriceDelta),
	}

	if graduated {
		// Bonding pricing no longer applies; the last executed trade
		// stands in for spot where one exists.
		currentPrice = lastPrice
		if lastPrice != nil {
			mcap, err := fixedpoint.MulDiv(lastPrice, club.Supply, fixedpoint.Pow10(domain.TokenDecimals))
			if err == nil {
				info.MarketCap = formatQuote(mcap)
			}
		}
	} else {
		spot, err := e.pricer.SpotPrice(club.Supply)
		if err != nil {
			return nil, classify(err)
		}
		currentPrice = spot
		info.BuyPrice = formatQuote(spot)

		mcap, err := e.pricer.MarketCap(club.Supply)
		if err != nil {
			return nil, classify(err)
		}
		info.MarketCap = formatQuote(mcap)
	}

	res := analytics.ComputeDeltas(currentPrice, snapshots)
	for window, delta := range res.Deltas {
		info.PriceDeltas[window] = PriceDelta{
			Positive: delta.Positive,
			ValuePct: formatPercent(delta.ValuePct),
		}
	}
	for window, err := range res.Omitted {
		e.logger.Printf("trading info %s: window %s omitted: %v", clubID, window, err)
	}

	return info, nil
}

// GetBondingProgress returns how far the club's supply has moved toward
// graduation, as a percentage with two decimal places clamped to 100.
func (e *Engine) GetBondingProgress(ctx context.Context, clubID string) (_ string, retErr error) {
	defer observe("get_bonding_progress", time.Now(), &retErr)

	club, err := e.clubState(ctx, clubID)
	if err != nil {
		return "", err
	}
	if club.Graduated() {
		return "100.00", nil
	}

	progress, perr := e.pricer.Progress(club.Supply)
	if perr != nil {
		return "", classify(perr)
	}
	return formatPercent(progress), nil
}

// clubState is the bounded required club read shared by the quote
// operations.
func (e *Engine) clubState(ctx context.Context, clubID string) (*domain.Club, *Error) {
	rctx, cancel := e.withDeadline(ctx)
	defer cancel()

	club, err := e.reader.ClubState(rctx, clubID)
	if err != nil {
		return nil, classify(err)
	}
	return club, nil
}
