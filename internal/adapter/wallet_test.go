package adapter

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagmarket-client/internal/config"
	"github.com/flagmarket-client/internal/logging"
)

func writeTestKeystore(t *testing.T, passphrase string) (string, string) {
	t.Helper()

	priv, err := crypto.GenerateKey()
	require.NoError(t, err)

	key := &keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}
	raw, err := keystore.EncryptKey(key, passphrase, keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keystore.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path, key.Address.Hex()
}

func walletConfig(keystorePath, passphrase string) *config.Config {
	return &config.Config{
		Wallet: config.WalletConfig{KeystorePath: keystorePath, Passphrase: passphrase},
		Chain: config.ChainConfig{
			RPCURL:                "http://localhost:8545",
			ChainID:               31337,
			MarketContractAddress: "0x00000000000000000000000000000000000000aa",
		},
	}
}

func TestNewKeystoreWallet(t *testing.T) {
	logger := logging.NewLogger(logging.LevelError, logging.FormatText)

	t.Run("loads and normalizes the address", func(t *testing.T) {
		path, addr := writeTestKeystore(t, "hunter2")

		w, err := NewKeystoreWallet(walletConfig(path, "hunter2"), logger)

		require.NoError(t, err)
		assert.True(t, w.Connected())
		// hex addresses are checksummed mixed-case; client state is lower-case
		assert.Equal(t, addr, w.key.Address.Hex())
		assert.NotEqual(t, addr, w.Address())
		assert.Equal(t, len(addr), len(w.Address()))
	})

	t.Run("wrong passphrase fails", func(t *testing.T) {
		path, _ := writeTestKeystore(t, "hunter2")

		_, err := NewKeystoreWallet(walletConfig(path, "wrong"), logger)

		require.Error(t, err)
	})

	t.Run("missing keystore path is a config error", func(t *testing.T) {
		_, err := NewKeystoreWallet(walletConfig("", "x"), logger)
		require.Error(t, err)
	})
}

func TestMethodCallData(t *testing.T) {
	data := methodCallData("claimFirst(bytes32)", "flag-1")

	require.Len(t, data, 36)
	assert.Equal(t, crypto.Keccak256([]byte("claimFirst(bytes32)"))[:4], data[:4])
	assert.Equal(t, crypto.Keccak256([]byte("flag-1")), data[4:])
}

func TestTokenWeiConversion(t *testing.T) {
	wei := tokenToWei(decimal.RequireFromString("0.015"))
	assert.Equal(t, "15000000000000000", wei.String())

	back := weiToToken(wei)
	assert.Equal(t, "0.015", back.String())

	assert.Equal(t, "0", tokenToWei(decimal.Zero).String())
	assert.True(t, weiToToken(big.NewInt(0)).IsZero())
}
