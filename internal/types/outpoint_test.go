package types

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// genesis coinbase txid
const genesisTxid = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

func TestOutputKeyIsDisplayOrder(t *testing.T) {
	txid, err := chainhash.NewHashFromStr(genesisTxid)
	require.NoError(t, err)

	key := OutputKey(txid, 0)
	assert.Equal(t, genesisTxid+"0", key)

	// internal byte order is reversed relative to the display form
	assert.Equal(t, byte(0x3b), txid[0])
}

func TestInputReferenceKeyMatchesOutputKey(t *testing.T) {
	txid := chainhash.DoubleHashH([]byte("tx"))
	for _, vout := range []uint32{0, 1, 9, 10, 255, 4294967295} {
		prev := wire.OutPoint{Hash: txid, Index: vout}
		assert.Equal(t, OutputKey(&txid, vout), InputReferenceKey(prev))
	}
}

func TestOutpointKeyRoundtrip(t *testing.T) {
	txid := chainhash.DoubleHashH([]byte("roundtrip"))

	// includes multi digit indices which a fixed one character split would break
	for _, vout := range []uint32{0, 3, 9, 10, 11, 99, 100, 12345} {
		o := Outpoint{Txid: txid, Vout: vout}
		parsed, err := ParseOutpointKey(o.Key())
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
		assert.Equal(t, txid.String(), parsed.TxidHex())
	}
}

func TestParseOutpointKeyRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"txid only":    genesisTxid,
		"bad hex":      strings.Repeat("z", TxidHexLength) + "0",
		"bad index":    genesisTxid + "x",
		"signed index": genesisTxid + "-1",
		"overflow":     genesisTxid + "4294967296",
		"leading zero": genesisTxid + "01",
		"double zero":  genesisTxid + "00",
	}
	for name, key := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOutpointKey(key)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCodec))
		})
	}
}
