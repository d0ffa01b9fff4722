package adapter

import (
	"context"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/flagmarket-client/internal/config"
	"github.com/flagmarket-client/internal/errors"
	"github.com/flagmarket-client/internal/logging"
	"github.com/flagmarket-client/internal/types"
)

// Wallet is the signing capability the client depends on. It is injected,
// never reached as an ambient global, so tests substitute a double.
//
// SignClaim and SignPurchase return a transaction hash; a failure means no
// on-chain effect occurred and the flow aborts with nothing to compensate.
type Wallet interface {
	// Connected reports whether a signing key is loaded
	Connected() bool
	// Address returns the normalized wallet address, empty when disconnected
	Address() string
	// Balance returns the wallet's native balance in whole tokens
	Balance(ctx context.Context) (decimal.Decimal, error)
	// SignClaim submits the claim-first transaction for a flag (free, value 0)
	SignClaim(ctx context.Context, flagID string) (string, error)
	// SignPurchase submits the purchase-second transaction at the given total
	SignPurchase(ctx context.Context, flagID string, total decimal.Decimal) (string, error)
}

// gas limit for the market contract's claim/purchase methods
const marketTxGasLimit = 200_000

// KeystoreWallet signs marketplace transactions with a local keystore key
// and submits them through an Ethereum RPC endpoint.
type KeystoreWallet struct {
	key      *keystore.Key
	client   *ethclient.Client
	chainID  *big.Int
	contract common.Address
	logger   *logging.Logger
}

// NewKeystoreWallet loads the keystore file and connects to the RPC
// endpoint. All three of keystore path, RPC URL and market contract address
// are required.
func NewKeystoreWallet(cfg *config.Config, logger *logging.Logger) (*KeystoreWallet, error) {
	if cfg.Wallet.KeystorePath == "" {
		return nil, errors.NewConfigError("wallet keystore path is not configured")
	}
	if cfg.Chain.RPCURL == "" {
		return nil, errors.NewConfigError("Ethereum RPC URL is not configured")
	}
	if cfg.Chain.MarketContractAddress == "" {
		return nil, errors.NewConfigError("market contract address is not configured")
	}

	raw, err := os.ReadFile(cfg.Wallet.KeystorePath)
	if err != nil {
		return nil, errors.NewWalletError("could not read the wallet keystore file", err)
	}
	key, err := keystore.DecryptKey(raw, cfg.Wallet.Passphrase)
	if err != nil {
		return nil, errors.NewWalletError("could not unlock the wallet keystore", err)
	}

	client, err := ethclient.Dial(cfg.Chain.RPCURL)
	if err != nil {
		return nil, errors.NewWalletError("could not connect to the Ethereum RPC endpoint", err)
	}

	return &KeystoreWallet{
		key:      key,
		client:   client,
		chainID:  big.NewInt(cfg.Chain.ChainID),
		contract: common.HexToAddress(cfg.Chain.MarketContractAddress),
		logger:   logger.WithField("component", "wallet"),
	}, nil
}

// Connected reports whether a signing key is loaded.
func (w *KeystoreWallet) Connected() bool {
	return w.key != nil
}

// Address returns the normalized wallet address.
func (w *KeystoreWallet) Address() string {
	if w.key == nil {
		return ""
	}
	return types.NormalizeAddress(w.key.Address.Hex())
}

// Balance returns the wallet's native balance in whole tokens.
func (w *KeystoreWallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	wei, err := w.client.BalanceAt(ctx, w.key.Address, nil)
	if err != nil {
		return decimal.Zero, errors.NewWalletError("could not read the wallet balance", err)
	}
	return weiToToken(wei), nil
}

// SignClaim submits the claim-first transaction. Claiming is free: value 0.
func (w *KeystoreWallet) SignClaim(ctx context.Context, flagID string) (string, error) {
	data := methodCallData("claimFirst(bytes32)", flagID)
	return w.sendTx(ctx, big.NewInt(0), data)
}

// SignPurchase submits the purchase-second transaction carrying the quoted
// total as the transaction value.
func (w *KeystoreWallet) SignPurchase(ctx context.Context, flagID string, total decimal.Decimal) (string, error) {
	data := methodCallData("purchaseSecond(bytes32)", flagID)
	return w.sendTx(ctx, tokenToWei(total), data)
}

func (w *KeystoreWallet) sendTx(ctx context.Context, value *big.Int, data []byte) (string, error) {
	nonce, err := w.client.PendingNonceAt(ctx, w.key.Address)
	if err != nil {
		return "", errors.NewWalletError("could not determine the next account nonce", err)
	}
	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", errors.NewWalletError("could not fetch a gas price", err)
	}

	tx := ethtypes.NewTransaction(nonce, w.contract, value, marketTxGasLimit, gasPrice, data)
	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(w.chainID), w.key.PrivateKey)
	if err != nil {
		return "", errors.NewWalletError("could not sign the transaction", err)
	}
	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return "", errors.NewWalletError("the transaction was rejected by the network", err)
	}

	hash := signed.Hash().Hex()
	w.logger.WithFields(map[string]interface{}{
		"tx":    hash,
		"value": value.String(),
	}).Info("Transaction submitted")
	return hash, nil
}

// methodCallData builds the calldata for a market contract method taking the
// flag's id as a bytes32: 4-byte selector followed by keccak256(flagID).
func methodCallData(signature, flagID string) []byte {
	selector := crypto.Keccak256([]byte(signature))[:4]
	arg := crypto.Keccak256([]byte(flagID))
	return append(selector, arg...)
}

// tokenToWei converts a whole-token decimal amount to wei.
func tokenToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(18).BigInt()
}

// weiToToken converts a wei amount to a whole-token decimal.
func weiToToken(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -18)
}
