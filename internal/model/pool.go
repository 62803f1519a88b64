package model

// PoolType is the side of a lending market a pool tracks.
type PoolType string

const (
	PoolSupply PoolType = "supply"
	PoolBorrow PoolType = "borrow"
)

// Valid reports whether the pool type is one of the known sides.
func (p PoolType) Valid() bool {
	return p == PoolSupply || p == PoolBorrow
}

// PoolConfig describes one tracked protocol/chain/token/pool-type combination.
type PoolConfig struct {
	ProtocolSlug string   `json:"protocol_slug"`
	Chain        string   `json:"chain"`
	PoolID       string   `json:"pool_id"`
	PoolType     PoolType `json:"pool_type"`
	Token        string   `json:"token"`
}

// LegendEntry pairs a protocol with the chain it is tracked on.
type LegendEntry struct {
	Protocol string `json:"protocol"`
	Chain    string `json:"chain"`
}
