package types

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Block is the parsed form of a block as far as the ledger cares.
type Block struct {
	Hash chainhash.Hash
	Txs  []*Transaction
}

func (b *Block) TxCount() uint64 {
	return uint64(len(b.Txs))
}

type Transaction struct {
	Txid chainhash.Hash
	// Inputs holds the previous outpoints spent by the transaction.
	// A coinbase transaction has none.
	Inputs  []wire.OutPoint
	Outputs []Output
}

func (t *Transaction) InCount() uint64  { return uint64(len(t.Inputs)) }
func (t *Transaction) OutCount() uint64 { return uint64(len(t.Outputs)) }

// Output is a created output with its address already resolved from the script.
type Output struct {
	Value   uint64
	Address string
}
