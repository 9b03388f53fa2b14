package dbpebble

// Prefix Keys "K"
const (
	// KUnspent prefixes every ledger entry, followed by the outpoint key
	KUnspent = 0x01
)

func KeyUnspent(key string) []byte {
	k := make([]byte, 1+len(key))
	k[0] = KUnspent
	copy(k[1:], key)
	return k
}

func BoundsUnspent() (lb, ub []byte) {
	return []byte{KUnspent}, []byte{KUnspent + 1}
}
