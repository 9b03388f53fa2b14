package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"

	"github.com/setavenger/utxo-dump/internal/logging"
	"github.com/setavenger/utxo-dump/internal/types"
)

// ErrBadStatus marks a non 200 answer of the node's REST interface.
var ErrBadStatus = errors.New("bad status code from node")

// pooling of api calls, blocks are pulled back to back
var httpClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,

		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	},
}

type ChainInfo struct {
	Chain                string   `json:"chain"`
	Blocks               int64    `json:"blocks"`
	Headers              int64    `json:"headers"`
	BestBlockHash        string   `json:"bestblockhash"`
	Difficulty           float64  `json:"difficulty"`
	MedianTime           int64    `json:"mediantime"`
	VerificationProgress float64  `json:"verificationprogress"`
	InitialBlockDownload bool     `json:"initialblockdownload"`
	Pruned               bool     `json:"pruned"`
	Warnings             []string `json:"warnings"`
}

// RestSource pulls blocks from bitcoind's REST interface (-rest=1).
type RestSource struct {
	Endpoint string
	Params   *chaincfg.Params
	client   *http.Client
}

func NewRestSource(endpoint string, params *chaincfg.Params) *RestSource {
	return &RestSource{Endpoint: endpoint, Params: params, client: httpClient}
}

func (r *RestSource) get(ctx context.Context, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/%s", r.Endpoint, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating request %s", url)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "error performing request %s", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading body of %s", url)
	}

	if resp.StatusCode != http.StatusOK {
		logging.L.Warn().
			Str("url", url).
			Str("status", resp.Status).
			Msg("bad status code")
		return nil, errors.Mark(
			errors.Newf("%s: %s %s", url, resp.Status, bytes.TrimSpace(body)),
			ErrBadStatus,
		)
	}
	return body, nil
}

func (r *RestSource) ChainInfo(ctx context.Context) (*ChainInfo, error) {
	body, err := r.get(ctx, "chaininfo.json")
	if err != nil {
		return nil, err
	}

	var chainInfo ChainInfo
	if err = json.Unmarshal(body, &chainInfo); err != nil {
		return nil, errors.Wrap(err, "unable to decode chaininfo")
	}
	return &chainInfo, nil
}

func (r *RestSource) TipHeight(ctx context.Context) (uint64, error) {
	info, err := r.ChainInfo(ctx)
	if err != nil {
		return 0, err
	}
	if info.Blocks < 0 {
		return 0, errors.Newf("node reports %d blocks", info.Blocks)
	}
	return uint64(info.Blocks), nil
}

func (r *RestSource) BlockHashByHeight(ctx context.Context, height uint64) (*chainhash.Hash, error) {
	body, err := r.get(ctx, fmt.Sprintf("blockhashbyheight/%d.bin", height))
	if err != nil {
		return nil, err
	}
	blockHash, err := chainhash.NewHash(body)
	if err != nil {
		return nil, errors.Wrapf(err, "block hash at height %d", height)
	}
	return blockHash, nil
}

func (r *RestSource) BlockByHash(ctx context.Context, blockHash *chainhash.Hash) (*btcutil.Block, error) {
	body, err := r.get(ctx, fmt.Sprintf("block/%s.bin", blockHash))
	if err != nil {
		return nil, err
	}
	block, err := btcutil.NewBlockFromBytes(body)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding block %s", blockHash)
	}
	return block, nil
}

// BlockAt resolves the block at height and converts it for the ledger.
func (r *RestSource) BlockAt(ctx context.Context, height uint64) (*types.Block, error) {
	blockHash, err := r.BlockHashByHeight(ctx, height)
	if err != nil {
		return nil, err
	}
	block, err := r.BlockByHash(ctx, blockHash)
	if err != nil {
		return nil, err
	}
	return FromBtcutil(block, r.Params), nil
}
