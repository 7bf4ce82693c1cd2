package domain

import "math/big"

// VestingGrant is a time-locked token allocation with a cliff-plus-linear
// unlock schedule. Created once at distribution time and read-only after;
// unlock is computed from wall-clock time, never mutated.
type VestingGrant struct {
	Beneficiary     string   // base58 beneficiary address
	TokenAddress    string   // base58 token mint address
	TotalAllocated  *big.Int // token smallest units
	Claimed         *big.Int // already withdrawn, reported by the chain
	StartTime       int64    // Unix timestamp in seconds
	CliffDuration   int64    // seconds; no unlock before start + cliff
	VestingDuration int64    // seconds of linear unlock after the cliff
}
