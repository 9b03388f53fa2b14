package types

// Counters are the aggregates collected while applying blocks.
type Counters struct {
	StartHeight uint64 `json:"start_height"`
	EndHeight   uint64 `json:"end_height"`
	LastHeight  uint64 `json:"last_height"`
	Blocks      uint64 `json:"blocks"`
	TxCount     uint64 `json:"tx_count"`
	InCount     uint64 `json:"in_count"`
	OutCount    uint64 `json:"out_count"`
}
