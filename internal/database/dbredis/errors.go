package dbredis

import "github.com/cockroachdb/errors"

var errOddScan = errors.New("hscan returned a field without value")
