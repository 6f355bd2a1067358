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

// Package sensors defines the two external-state readings a cycle can
// take: a trading agent's wallet snapshot and a marketing agent's social
// snapshot. Each has an HTTP-backed implementation (trading, marketing).
// The fixed defaults below are the values the marketing sensor returns
// when its fetch fails; there is no separate mock implementation.
package sensors

import (
	"context"
	"time"
)

// TokenHolding is one ERC-20 balance observed in a wallet snapshot.
type TokenHolding struct {
	Symbol   string
	Balance  float64
	PriceUSD float64
}

// WalletSnapshot is a trading agent's view of its own portfolio at one
// point in time. EthBalanceReserved is always 0.01, a fixed gas-fee
// reserve carried over unconditionally.
type WalletSnapshot struct {
	EthBalance          float64
	EthBalanceReserved  float64
	EthBalanceAvailable float64
	EthPriceUSD         float64
	Tokens              map[string]TokenHolding
	TotalValueUSD       float64
	Timestamp           time.Time
}

// TradingSensor reads a trading agent's current wallet state.
type TradingSensor interface {
	Snapshot(ctx context.Context) (WalletSnapshot, error)
}

// SocialSnapshot is a marketing agent's view of its own audience at one
// point in time.
type SocialSnapshot struct {
	Followers int
	Likes     int
}

// MarketingSensor reads a marketing agent's current social metrics.
type MarketingSensor interface {
	Snapshot(ctx context.Context) (SocialSnapshot, error)
}

// EthBalanceReserve is the fixed ETH amount every wallet snapshot
// reserves for gas fees before reporting available balance.
const EthBalanceReserve = 0.01

// DefaultFollowers and DefaultLikes are the values a marketing sensor
// falls back to when the social metrics source is unreachable.
const (
	DefaultFollowers = 27
	DefaultLikes     = 27 * 4
)
