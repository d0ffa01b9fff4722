package adapter

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/flagmarket-client/internal/logging"
)

// DiscountSource resolves an optional per-(flag, viewer) unit price
// override. A nil result with nil error means no discount applies.
type DiscountSource interface {
	DiscountedUnitPrice(ctx context.Context, flagID, viewerAddress string) (*decimal.Decimal, error)
}

// ContractPricer reads discounted unit prices from the on-chain pricing
// contract. It is only constructed when a pricing contract address is
// configured; without one, discount lookups simply never happen.
type ContractPricer struct {
	client   *ethclient.Client
	contract common.Address
	logger   *logging.Logger
}

// NewContractPricer connects a pricer to the configured contract.
func NewContractPricer(rpcURL, contractAddress string, logger *logging.Logger) (*ContractPricer, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}
	return &ContractPricer{
		client:   client,
		contract: common.HexToAddress(contractAddress),
		logger:   logger.WithField("component", "pricing_contract"),
	}, nil
}

// DiscountedUnitPrice calls unitPriceFor(address,bytes32) on the pricing
// contract. A zero return value means the viewer has no discount.
func (p *ContractPricer) DiscountedUnitPrice(ctx context.Context, flagID, viewerAddress string) (*decimal.Decimal, error) {
	data := discountCallData(viewerAddress, flagID)
	out, err := p.client.CallContract(ctx, ethereum.CallMsg{
		To:   &p.contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	wei := new(big.Int).SetBytes(out)
	if wei.Sign() == 0 {
		return nil, nil
	}

	price := decimal.NewFromBigInt(wei, -18)
	p.logger.WithFields(map[string]interface{}{
		"flag":  flagID,
		"price": price.String(),
	}).Debug("Discounted unit price resolved")
	return &price, nil
}

// discountCallData builds calldata for unitPriceFor(address,bytes32):
// selector, the viewer address left-padded to 32 bytes, keccak256(flagID).
func discountCallData(viewerAddress, flagID string) []byte {
	selector := crypto.Keccak256([]byte("unitPriceFor(address,bytes32)"))[:4]
	viewer := common.LeftPadBytes(common.HexToAddress(viewerAddress).Bytes(), 32)
	flag := crypto.Keccak256([]byte(flagID))

	data := make([]byte, 0, 4+32+32)
	data = append(data, selector...)
	data = append(data, viewer...)
	data = append(data, flag...)
	return data
}
