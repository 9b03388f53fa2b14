package types

import (
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
)

// TxidHexLength is the width of the txid part of every ledger key.
const TxidHexLength = 2 * chainhash.HashSize

// Outpoint identifies one output. Its Key is the string the stores are keyed by:
// the txid in display (byte reversed) hex directly followed by the decimal index.
type Outpoint struct {
	Txid chainhash.Hash
	Vout uint32
}

func (o Outpoint) Key() string {
	return OutputKey(&o.Txid, o.Vout)
}

func (o Outpoint) TxidHex() string {
	return o.Txid.String()
}

// OutputKey builds the ledger key for output vout of txid.
func OutputKey(txid *chainhash.Hash, vout uint32) string {
	return txid.String() + strconv.FormatUint(uint64(vout), 10)
}

// InputReferenceKey builds the key of the output an input spends.
// Has to stay byte identical to OutputKey, deletions rely on it.
func InputReferenceKey(prev wire.OutPoint) string {
	return OutputKey(&prev.Hash, prev.Index)
}

// ParseOutpointKey splits a ledger key into txid and index.
// The txid part always has TxidHexLength characters, the rest is the index.
func ParseOutpointKey(key string) (Outpoint, error) {
	if len(key) <= TxidHexLength {
		return Outpoint{}, errors.Mark(
			errors.Newf("key %q too short", key), ErrCodec,
		)
	}

	txid, err := chainhash.NewHashFromStr(key[:TxidHexLength])
	if err != nil {
		return Outpoint{}, errors.Mark(
			errors.Wrapf(err, "bad txid in key %q", key), ErrCodec,
		)
	}

	index := key[TxidHexLength:]
	if len(index) > 1 && index[0] == '0' {
		return Outpoint{}, errors.Mark(
			errors.Newf("index with leading zero in key %q", key), ErrCodec,
		)
	}

	vout, err := strconv.ParseUint(index, 10, 32)
	if err != nil {
		return Outpoint{}, errors.Mark(
			errors.Wrapf(err, "bad index in key %q", key), ErrCodec,
		)
	}

	return Outpoint{Txid: *txid, Vout: uint32(vout)}, nil
}
