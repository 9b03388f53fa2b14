// Package dataexport renders the ledger into the unspent CSV snapshot.
package dataexport

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/setavenger/utxo-dump/internal/database"
	"github.com/setavenger/utxo-dump/internal/logging"
	"github.com/setavenger/utxo-dump/internal/types"
)

// ErrIO marks a failure writing or publishing the snapshot file.
var ErrIO = errors.New("snapshot io error")

// Header is the first row of every snapshot.
var Header = []string{"txid", "indexOut", "height", "value", "address"}

const (
	Delimiter = ';'
	// writerCapacity matches the buffer the dump files were always written with
	writerCapacity = 4_000_000
)

// Exporter writes <dir>/<name>.csv.tmp and publishes it as
// <dir>/<name>-<start>-<end>.csv once every row is on disk.
type Exporter struct {
	Dir  string
	Name string

	// Rename publishes the finished file, os.Rename unless replaced.
	Rename func(oldPath, newPath string) error

	file *os.File
}

type Summary struct {
	Path       string
	Rows       uint64
	TotalValue uint64
}

func NewExporter(dir, name string) *Exporter {
	return &Exporter{Dir: dir, Name: name, Rename: os.Rename}
}

func (e *Exporter) TempPath() string {
	return filepath.Join(e.Dir, e.Name+".csv.tmp")
}

func (e *Exporter) FinalPath(startHeight, endHeight uint64) string {
	return filepath.Join(e.Dir, fmt.Sprintf("%s-%d-%d.csv", e.Name, startHeight, endHeight))
}

func ioErr(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrIO)
}

// Prepare creates the temporary file up front so an unusable dump folder
// is noticed before any block is processed. Export calls it if needed.
func (e *Exporter) Prepare() error {
	if e.file != nil {
		return nil
	}
	if err := os.MkdirAll(e.Dir, 0750); err != nil {
		return ioErr(err, "failed creating dump folder %s", e.Dir)
	}
	f, err := os.Create(e.TempPath())
	if err != nil {
		return ioErr(err, "failed creating %s", e.TempPath())
	}
	e.file = f
	return nil
}

// Export scans the whole store and writes one row per entry in the store's
// native order. Nothing is published unless every step succeeds.
func (e *Exporter) Export(ctx context.Context, store database.Store, counters types.Counters) (*Summary, error) {
	if err := e.Prepare(); err != nil {
		return nil, err
	}
	f := e.file
	e.file = nil

	summary, err := writeRows(ctx, f, store)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = ioErr(cerr, "failed closing %s", f.Name())
	}
	if err != nil {
		return nil, err
	}

	finalPath := e.FinalPath(counters.StartHeight, counters.EndHeight)
	if err = e.Rename(e.TempPath(), finalPath); err != nil {
		return nil, ioErr(err, "unable to rename tmp file to %s", finalPath)
	}
	summary.Path = finalPath

	logging.L.Info().
		Str("path", finalPath).
		Uint64("rows", summary.Rows).
		Msg("snapshot published")

	return summary, nil
}

// Abort drops a prepared temp file handle without publishing.
func (e *Exporter) Abort() {
	if e.file == nil {
		return
	}
	if err := e.file.Close(); err != nil {
		logging.L.Err(err).Msg("failed closing snapshot tmp file")
	}
	e.file = nil
}

func writeRows(ctx context.Context, f *os.File, store database.Store) (*Summary, error) {
	buf := bufio.NewWriterSize(f, writerCapacity)
	writer := csv.NewWriter(buf)
	writer.Comma = Delimiter

	if err := writer.Write(Header); err != nil {
		return nil, ioErr(err, "failed writing header")
	}

	it, err := store.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var (
		summary Summary
		utxo    types.UTXO
	)
	for it.Next() {
		if err = types.DecodePair(&utxo, []byte(it.Key()), it.Value()); err != nil {
			return nil, errors.Wrapf(err, "row %d key %s", summary.Rows, it.Key())
		}

		if err = writer.Write(convertUTXOToRecord(&utxo)); err != nil {
			return nil, ioErr(err, "failed writing row %d", summary.Rows)
		}
		summary.Rows++
		summary.TotalValue += utxo.Value
	}
	if err = it.Err(); err != nil {
		return nil, err
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		return nil, ioErr(err, "failed flushing csv writer")
	}
	if err = buf.Flush(); err != nil {
		return nil, ioErr(err, "failed flushing %s", f.Name())
	}
	return &summary, nil
}

func convertUTXOToRecord(utxo *types.UTXO) []string {
	return []string{
		utxo.TxidHex(),
		strconv.FormatUint(uint64(utxo.Vout), 10),
		strconv.FormatUint(utxo.BlockHeight, 10),
		strconv.FormatUint(utxo.Value, 10),
		utxo.Address,
	}
}
