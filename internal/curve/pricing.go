package curve

import (
	"math/big"

	"club-token-engine/internal/domain"
	"club-token-engine/internal/fixedpoint"
)

// DefaultStepTokens is the integration quantum in whole tokens. Buy and
// sell quotes walk the curve in steps of this size, repricing at each
// step boundary.
const DefaultStepTokens = 10_000

// Pricer computes buy/sell quotes, market cap and bonding progress for a
// configured curve. Stateless; safe for concurrent use.
type Pricer struct {
	curve         PriceCurve
	flatThreshold *big.Int // graduation supply, token smallest units
	step          *big.Int // integration step, token smallest units
	tokenScale    *big.Int // 10^TokenDecimals
}

// PricerOption configures a Pricer.
type PricerOption func(*Pricer)

// WithStepTokens overrides the integration step (whole tokens).
func WithStepTokens(wholeTokens int64) PricerOption {
	return func(p *Pricer) {
		p.step = new(big.Int).Mul(big.NewInt(wholeTokens), p.tokenScale)
	}
}

// NewPricer creates a Pricer for the given curve and graduation threshold.
func NewPricer(c PriceCurve, flatThreshold *big.Int, opts ...PricerOption) *Pricer {
	tokenScale := fixedpoint.Pow10(domain.TokenDecimals)
	p := &Pricer{
		curve:         c,
		flatThreshold: new(big.Int).Set(flatThreshold),
		step:          new(big.Int).Mul(big.NewInt(DefaultStepTokens), tokenScale),
		tokenScale:    tokenScale,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Quote is the result of simulating a trade along the curve.
type Quote struct {
	TokensOut      *big.Int // token smallest units (buys) or sold amount (sells)
	QuoteAmount    *big.Int // quote units spent (buys) or received (sells)
	EffectivePrice *big.Int // quote units per whole token across the fill
}

// Graduated reports whether the supply has reached the flat threshold.
func (p *Pricer) Graduated(supply *big.Int) bool {
	return supply != nil && supply.Cmp(p.flatThreshold) >= 0
}

// SpotPrice returns the curve price at the given supply, or ErrGraduated
// once the threshold is reached.
func (p *Pricer) SpotPrice(supply *big.Int) (*big.Int, error) {
	if p.Graduated(supply) {
		return nil, ErrGraduated
	}
	return p.curve.PriceForSupply(supply), nil
}

// BuyQuote integrates the curve from the current supply to simulate
// spending quoteIn. The walk buys at most step tokens at the current spot
// price, then reprices; it stops at the flat threshold, so a crossing buy
// is partially filled and the unspent quote is left out of QuoteAmount.
func (p *Pricer) BuyQuote(supply, quoteIn *big.Int) (*Quote, error) {
	if quoteIn == nil || quoteIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if supply == nil {
		supply = new(big.Int)
	}
	if p.Graduated(supply) {
		return nil, ErrGraduated
	}

	remaining := new(big.Int).Set(quoteIn)
	s := new(big.Int).Set(supply)
	tokensOut := new(big.Int)

	for remaining.Sign() > 0 && s.Cmp(p.flatThreshold) < 0 {
		price := p.curve.PriceForSupply(s)
		if price.Sign() <= 0 {
			return nil, fixedpoint.ErrDivisionByZero
		}

		step := p.stepWithin(s)
		// Buyers pay the rounded-up cost so a sub-token step can never
		// price at zero.
		cost, err := fixedpoint.MulDivCeil(price, step, p.tokenScale)
		if err != nil {
			return nil, err
		}

		if remaining.Cmp(cost) >= 0 {
			tokensOut.Add(tokensOut, step)
			s.Add(s, step)
			remaining.Sub(remaining, cost)
			continue
		}

		// Partial fill of the final step at the current spot price.
		part, err := fixedpoint.MulDiv(remaining, p.tokenScale, price)
		if err != nil {
			return nil, err
		}
		if part.Sign() == 0 {
			// Remaining quote is dust below one token unit; leave it unspent.
			break
		}
		if part.Cmp(step) > 0 {
			part = step
		}
		tokensOut.Add(tokensOut, part)
		s.Add(s, part)
		remaining.SetInt64(0)
	}

	spent := new(big.Int).Sub(quoteIn, remaining)
	return &Quote{
		TokensOut:      tokensOut,
		QuoteAmount:    spent,
		EffectivePrice: p.effectivePrice(spent, tokensOut, supply),
	}, nil
}

// SellQuote integrates the curve downward to simulate selling tokensIn
// back into the reserve.
func (p *Pricer) SellQuote(supply, tokensIn *big.Int) (*Quote, error) {
	if tokensIn == nil || tokensIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if supply == nil || tokensIn.Cmp(supply) > 0 {
		return nil, ErrInsufficientSupply
	}
	if p.Graduated(supply) {
		return nil, ErrGraduated
	}

	remaining := new(big.Int).Set(tokensIn)
	s := new(big.Int).Set(supply)
	quoteOut := new(big.Int)

	for remaining.Sign() > 0 {
		step := new(big.Int).Set(p.step)
		if step.Cmp(remaining) > 0 {
			step.Set(remaining)
		}
		s.Sub(s, step)

		price := p.curve.PriceForSupply(s)
		if price.Sign() <= 0 {
			return nil, fixedpoint.ErrDivisionByZero
		}
		proceeds, err := fixedpoint.MulDiv(price, step, p.tokenScale)
		if err != nil {
			return nil, err
		}
		quoteOut.Add(quoteOut, proceeds)
		remaining.Sub(remaining, step)
	}

	return &Quote{
		TokensOut:      new(big.Int).Set(tokensIn),
		QuoteAmount:    quoteOut,
		EffectivePrice: p.effectivePrice(quoteOut, tokensIn, supply),
	}, nil
}

// MarketCap derives spot price times circulating supply, normalized back
// to quote smallest units. Price carries quote decimals per whole token
// and supply carries token decimals, so the product is scaled down by the
// token decimal exponent to land both operands on the quote scale.
func (p *Pricer) MarketCap(supply *big.Int) (*big.Int, error) {
	price, err := p.SpotPrice(supply)
	if err != nil {
		return nil, err
	}
	return fixedpoint.MulDiv(price, supply, p.tokenScale)
}

// Progress returns bonding progress as a fixed-point percentage with
// fixedpoint.PercentDecimals fractional digits, clamped to [0, 100].
func (p *Pricer) Progress(supply *big.Int) (*big.Int, error) {
	return fixedpoint.Ratio(supply, p.flatThreshold)
}

// stepWithin bounds the integration step so the walk never crosses the
// flat threshold.
func (p *Pricer) stepWithin(s *big.Int) *big.Int {
	step := new(big.Int).Set(p.step)
	room := new(big.Int).Sub(p.flatThreshold, s)
	if step.Cmp(room) > 0 {
		step.Set(room)
	}
	return step
}

// effectivePrice is quote per whole token across the fill; for an empty
// fill it falls back to the spot price at the starting supply.
func (p *Pricer) effectivePrice(quote, tokens, startSupply *big.Int) *big.Int {
	if tokens.Sign() == 0 {
		return p.curve.PriceForSupply(startSupply)
	}
	eff, err := fixedpoint.MulDiv(quote, p.tokenScale, tokens)
	if err != nil {
		return p.curve.PriceForSupply(startSupply)
	}
	return eff
}
