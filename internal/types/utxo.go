package types

// UTXO is one ledger record: the outpoint is the key, the entry the value.
type UTXO struct {
	Outpoint
	Entry
}

var _ Pair = (*UTXO)(nil)

func (v *UTXO) SerialiseKey() ([]byte, error) {
	return []byte(v.Outpoint.Key()), nil
}

func (v *UTXO) SerialiseData() ([]byte, error) {
	return EncodeEntry(v.Entry), nil
}

func (v *UTXO) DeSerialiseKey(key []byte) error {
	outpoint, err := ParseOutpointKey(string(key))
	if err != nil {
		return err
	}
	v.Outpoint = outpoint
	return nil
}

func (v *UTXO) DeSerialiseData(data []byte) error {
	entry, err := DecodeEntry(data)
	if err != nil {
		return err
	}
	v.Entry = entry
	return nil
}
