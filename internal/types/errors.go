package types

import "github.com/cockroachdb/errors"

// ErrCodec marks a stored key or value that can not be decoded.
// A ledger holding such an entry is corrupted, callers abort on it.
var ErrCodec = errors.New("ledger codec error")
