package indexer

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/setavenger/utxo-dump/internal/logging"
	"github.com/setavenger/utxo-dump/internal/types"
)

// FromBtcutil converts a decoded block into the form the ledger consumes.
// The coinbase keeps its outputs but has no input references.
func FromBtcutil(b *btcutil.Block, params *chaincfg.Params) *types.Block {
	txs := b.Transactions()
	block := &types.Block{
		Hash: *b.Hash(),
		Txs:  make([]*types.Transaction, len(txs)),
	}

	for i, tx := range txs {
		msgTx := tx.MsgTx()
		out := &types.Transaction{
			Txid:    *tx.Hash(),
			Outputs: make([]types.Output, len(msgTx.TxOut)),
		}

		if !blockchain.IsCoinBaseTx(msgTx) {
			out.Inputs = make([]wire.OutPoint, len(msgTx.TxIn))
			for j, txIn := range msgTx.TxIn {
				out.Inputs[j] = txIn.PreviousOutPoint
			}
		}

		for j, txOut := range msgTx.TxOut {
			out.Outputs[j] = types.Output{
				Value:   uint64(txOut.Value),
				Address: OutputAddress(txOut.PkScript, params),
			}
		}
		block.Txs[i] = out
	}

	return block
}

// OutputAddress returns the first address a script pays to, or an empty
// string for scripts without one such as OP_RETURN or non-standard scripts.
// Pay to pubkey outputs are rendered as their pay to pubkey hash address.
func OutputAddress(pkScript []byte, params *chaincfg.Params) string {
	_, addresses, _, err := txscript.ExtractPkScriptAddrs(pkScript, params)
	if err != nil {
		logging.L.Debug().Err(err).Hex("script", pkScript).Msg("could not extract address")
		return ""
	}
	if len(addresses) == 0 {
		return ""
	}
	return addresses[0].EncodeAddress()
}
