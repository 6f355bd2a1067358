// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package trading implements sensors.TradingSensor by composing the
// signer service (for the agent's wallet address), an Ethereum JSON-RPC
// endpoint (for balance), Etherscan (for token holdings), and CoinGecko
// (for USD pricing) — the same four calls the reference implementation's
// get_wallet_stats makes.
package trading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/sensors"
)

// Config configures WalletSensor.
type Config struct {
	AgentID      string
	SignerURL    string // GET {SignerURL}/api/v1/addresses -> {"evm": "0x..."}
	RPCURL       string // Ethereum JSON-RPC endpoint
	EtherscanURL string // defaults to https://api.etherscan.io
	EtherscanKey string
	CoinGeckoURL string // defaults to https://api.coingecko.com
	HTTPClient   *http.Client
	Timeout      time.Duration
	Logger       *zap.Logger
}

// WalletSensor implements sensors.TradingSensor over HTTP.
type WalletSensor struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds a WalletSensor from cfg, applying defaults for the
// Etherscan/CoinGecko hosts, HTTP client timeout, and logger.
func New(cfg Config) *WalletSensor {
	if cfg.EtherscanURL == "" {
		cfg.EtherscanURL = "https://api.etherscan.io"
	}
	if cfg.CoinGeckoURL == "" {
		cfg.CoinGeckoURL = "https://api.coingecko.com"
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletSensor{cfg: cfg, client: client, logger: logger}
}

func (w *WalletSensor) getJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d: %s", url, resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func (w *WalletSensor) address(ctx context.Context) (string, error) {
	var resp struct {
		EVM string `json:"evm"`
	}
	err := w.getJSON(ctx, w.cfg.SignerURL+"/api/v1/addresses",
		map[string]string{"x-superior-agent-id": w.cfg.AgentID}, &resp)
	if err != nil {
		return "", fmt.Errorf("fetch signer address: %w", err)
	}
	return resp.EVM, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (w *WalletSensor) ethBalance(ctx context.Context, address string) (float64, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_getBalance",
		Params:  []any{address, "latest"},
		ID:      1,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.RPCURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return 0, fmt.Errorf("decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return 0, fmt.Errorf("eth_getBalance error: %s", rpcResp.Error.Message)
	}

	wei, ok := new(big.Int).SetString(trimHexPrefix(rpcResp.Result), 16)
	if !ok {
		return 0, fmt.Errorf("parse eth_getBalance result %q", rpcResp.Result)
	}
	ether := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18))
	val, _ := ether.Float64()
	return val, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func (w *WalletSensor) ethPriceUSD(ctx context.Context) (float64, error) {
	var resp struct {
		Ethereum struct {
			USD float64 `json:"usd"`
		} `json:"ethereum"`
	}
	err := w.getJSON(ctx, w.cfg.CoinGeckoURL+"/api/v3/simple/price?ids=ethereum&vs_currencies=usd", nil, &resp)
	if err != nil {
		return 0, fmt.Errorf("fetch eth price: %w", err)
	}
	return resp.Ethereum.USD, nil
}

type etherscanResult struct {
	Status string `json:"status"`
	Result []struct {
		ContractAddress string `json:"contractAddress"`
		TokenSymbol     string `json:"tokenSymbol"`
	} `json:"result"`
}

func (w *WalletSensor) tokenSymbols(ctx context.Context, address string) (map[string]string, error) {
	url := fmt.Sprintf("%s/api?module=account&action=tokentx&address=%s&sort=desc&apikey=%s",
		w.cfg.EtherscanURL, address, w.cfg.EtherscanKey)

	var resp etherscanResult
	if err := w.getJSON(ctx, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch token transfers: %w", err)
	}

	symbols := make(map[string]string)
	if resp.Status != "1" {
		return symbols, nil
	}
	for _, tx := range resp.Result {
		if tx.ContractAddress == "" {
			continue
		}
		if _, seen := symbols[tx.ContractAddress]; !seen {
			symbols[tx.ContractAddress] = tx.TokenSymbol
		}
	}
	return symbols, nil
}

// Snapshot implements sensors.TradingSensor. Failing to resolve the
// address or the ETH balance fails the read. The ETH price and the token
// list are best-effort: a failed price lookup is logged and leaves
// EthPriceUSD at 0; a failed transfer lookup is logged and leaves Tokens
// empty. Tokens are discovered from transfer history and carry only their
// symbol; no per-token balance or price is fetched.
func (w *WalletSensor) Snapshot(ctx context.Context) (sensors.WalletSnapshot, error) {
	address, err := w.address(ctx)
	if err != nil {
		return sensors.WalletSnapshot{}, agenterr.New(agenterr.KindSensor, "Snapshot", err)
	}

	ethBalance, err := w.ethBalance(ctx, address)
	if err != nil {
		return sensors.WalletSnapshot{}, agenterr.New(agenterr.KindSensor, "Snapshot", err)
	}

	available := ethBalance - sensors.EthBalanceReserve
	if available < 0 {
		available = 0
	}

	ethPrice, err := w.ethPriceUSD(ctx)
	if err != nil {
		w.logger.Warn("failed to fetch eth price, snapshot will omit USD values", zap.Error(err))
	}

	symbols, err := w.tokenSymbols(ctx, address)
	if err != nil {
		w.logger.Warn("failed to fetch token transfers, snapshot will have no tokens", zap.Error(err))
		symbols = map[string]string{}
	}

	tokens := make(map[string]sensors.TokenHolding, len(symbols))
	for addr, symbol := range symbols {
		tokens[addr] = sensors.TokenHolding{Symbol: symbol}
	}

	totalValueUSD := ethBalance * ethPrice

	return sensors.WalletSnapshot{
		EthBalance:          ethBalance,
		EthBalanceReserved:  sensors.EthBalanceReserve,
		EthBalanceAvailable: available,
		EthPriceUSD:         ethPrice,
		Tokens:              tokens,
		TotalValueUSD:       totalValueUSD,
		Timestamp:           time.Now().UTC(),
	}, nil
}

var _ sensors.TradingSensor = (*WalletSensor)(nil)
