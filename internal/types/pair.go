package types

// Pair is anything that is stored as one key/value record in a ledger store.
type Pair interface {
	SerialiseKey() ([]byte, error) // in case it fails we can abort
	SerialiseData() ([]byte, error)
	DeSerialiseKey([]byte) error  // needs to be implemented with pointer method in order to insert data into struct
	DeSerialiseData([]byte) error // needs to be implemented with pointer method in order to insert data into struct
}

// DecodePair fills pair from one stored record.
func DecodePair(pair Pair, key, value []byte) error {
	if err := pair.DeSerialiseKey(key); err != nil {
		return err
	}
	return pair.DeSerialiseData(value)
}
