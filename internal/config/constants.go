package config

import "time"

// Gas limits used as EstimateGas fallbacks when the node cannot simulate the tx.
const (
	GasLimitRegister = uint64(200_000)
	GasLimitBuy      = uint64(120_000)
	GasLimitSell     = uint64(120_000)
	GasLimitTransfer = uint64(60_000)
	GasLimitSetRates = uint64(60_000)
	GasLimitFund     = uint64(30_000)
	GasLimitDeploy   = uint64(3_000_000)
)

const (
	RPCSelectTimeout   = 10 * time.Second // BestEVM benchmark / RPC selection
	TxConfirmTimeout   = 3 * time.Minute  // standard transaction confirmation wait
	TxDeployTimeout    = 5 * time.Minute  // contract deployment confirmation wait
	ReceiptPollEvery   = 2 * time.Second
	HistoryBlockWindow = uint64(5_000) // eth_getLogs lookback
)
