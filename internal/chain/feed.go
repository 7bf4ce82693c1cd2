package chain

import "context"

// Feed defines the live trade event subscription interface.
type Feed interface {
	// SubscribeTrades subscribes to executed trades matching the filter.
	SubscribeTrades(ctx context.Context, filter TradeFilter) (<-chan TradeNotification, error)

	// Close closes the feed connection.
	Close() error
}

// TradeFilter defines a subscription filter for trade events.
type TradeFilter struct {
	// Clubs limits the stream to these club IDs. Empty means all clubs.
	Clubs []string
}

// TradeNotification is one trade event as delivered over the wire.
// Amounts stay decimal strings until the ingestion layer parses them,
// so a malformed event degrades to a logged skip instead of tearing
// down the stream.
type TradeNotification struct {
	ClubID      string `json:"clubId"`
	TxSignature string `json:"txSignature"`
	EventIndex  int    `json:"eventIndex"`
	IsBuy       bool   `json:"isBuy"`
	AmountIn    string `json:"amountIn"`
	AmountOut   string `json:"amountOut"`
	Price       string `json:"price"`
	Trader      string `json:"trader"`
	TimestampMs int64  `json:"timestampMs"`
}
