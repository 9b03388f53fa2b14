package indexer

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	genesisTxid    = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	genesisAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
)

// spendingBlock is the genesis block with one more transaction spending the genesis output.
func spendingBlock(t *testing.T) (*wire.MsgBlock, string) {
	t.Helper()
	params := &chaincfg.MainNetParams
	genesis := params.GenesisBlock

	addr, err := btcutil.NewAddressWitnessPubKeyHash(make([]byte, 20), params)
	require.NoError(t, err)
	p2wpkh, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	opReturn, err := txscript.NullDataScript([]byte("utxo"))
	require.NoError(t, err)

	spend := wire.NewMsgTx(wire.TxVersion)
	spend.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: genesis.Transactions[0].TxHash(), Index: 0}, nil, nil))
	spend.AddTxOut(wire.NewTxOut(4_999_000_000, p2wpkh))
	spend.AddTxOut(wire.NewTxOut(0, opReturn))

	block := wire.NewMsgBlock(&genesis.Header)
	require.NoError(t, block.AddTransaction(genesis.Transactions[0]))
	require.NoError(t, block.AddTransaction(spend))
	return block, addr.EncodeAddress()
}

func TestFromBtcutilGenesis(t *testing.T) {
	block := FromBtcutil(btcutil.NewBlock(chaincfg.MainNetParams.GenesisBlock), &chaincfg.MainNetParams)

	assert.Equal(t, chaincfg.MainNetParams.GenesisHash.String(), block.Hash.String())
	require.Len(t, block.Txs, 1)
	tx := block.Txs[0]
	assert.Equal(t, genesisTxid, tx.Txid.String())
	assert.Empty(t, tx.Inputs, "coinbase has no input references")
	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, uint64(5_000_000_000), tx.Outputs[0].Value)
	assert.Equal(t, genesisAddress, tx.Outputs[0].Address)
}

func TestFromBtcutilSpend(t *testing.T) {
	msgBlock, wantAddr := spendingBlock(t)
	block := FromBtcutil(btcutil.NewBlock(msgBlock), &chaincfg.MainNetParams)

	require.Len(t, block.Txs, 2)
	spend := block.Txs[1]
	require.Len(t, spend.Inputs, 1)
	assert.Equal(t, genesisTxid, spend.Inputs[0].Hash.String())
	assert.Equal(t, uint32(0), spend.Inputs[0].Index)

	require.Len(t, spend.Outputs, 2)
	assert.Equal(t, wantAddr, spend.Outputs[0].Address)
	assert.Equal(t, uint64(4_999_000_000), spend.Outputs[0].Value)
	assert.Equal(t, "", spend.Outputs[1].Address)
}

func TestOutputAddressNonStandard(t *testing.T) {
	assert.Equal(t, "", OutputAddress([]byte{txscript.OP_TRUE}, &chaincfg.MainNetParams))
	assert.Equal(t, "", OutputAddress(nil, &chaincfg.MainNetParams))
}
