package connectors

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Wallet is the signing and on-chain surface the engine needs. The concrete
// implementation holds a local key; tests substitute a fake.
type Wallet interface {
	Address() string

	// SignTypedData signs an EIP-712 payload and returns the 65-byte
	// signature hex-encoded with a 0x prefix.
	SignTypedData(typedData apitypes.TypedData) (string, error)

	Allowance(ctx context.Context, token, spender string) (*big.Int, error)
	Approve(ctx context.Context, token, spender string, amount *big.Int) (string, error)

	// WrapNative deposits the given amount of the native asset into the
	// chain's wrapped-native contract.
	WrapNative(ctx context.Context, wrappedToken string, amount *big.Int) (string, error)

	// CancelOrderV1 cancels one contract-native order by numeric id.
	CancelOrderV1(ctx context.Context, twapAddress string, orderID uint64) (string, error)

	// CancelOrdersV2 cancels a batch of permit-based orders by hash in a
	// single transaction.
	CancelOrdersV2(ctx context.Context, repermitAddress string, hashes []string) (string, error)
}
