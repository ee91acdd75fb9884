package connectors

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

const wethABI = `[
	{"constant":false,"inputs":[],"name":"deposit","outputs":[],"payable":true,"type":"function"}
]`

const twapABI = `[
	{"constant":false,"inputs":[{"name":"id","type":"uint64"}],"name":"cancel","outputs":[],"type":"function"}
]`

const repermitABI = `[
	{"constant":false,"inputs":[{"name":"orderHashes","type":"bytes32[]"}],"name":"cancel","outputs":[],"type":"function"}
]`

// EthWallet is the production Wallet backed by a local private key and a
// json-rpc endpoint.
type EthWallet struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int

	erc20    abi.ABI
	weth     abi.ABI
	twap     abi.ABI
	repermit abi.ABI
}

func NewEthWallet(rpcURL, privateKeyHex string, chainID uint64) (*EthWallet, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url not configured")
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rpc endpoint: %w", err)
	}
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	w := &EthWallet{
		client:     client,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    new(big.Int).SetUint64(chainID),
	}
	for _, a := range []struct {
		dst *abi.ABI
		raw string
	}{
		{&w.erc20, erc20ABI},
		{&w.weth, wethABI},
		{&w.twap, twapABI},
		{&w.repermit, repermitABI},
	} {
		parsed, err := abi.JSON(strings.NewReader(a.raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse abi: %w", err)
		}
		*a.dst = parsed
	}
	return w, nil
}

func (w *EthWallet) Address() string {
	return w.address.Hex()
}

// SignTypedData hashes the payload per EIP-712 ("\x19\x01" + domain
// separator + struct hash) and signs with the local key.
func (w *EthWallet) SignTypedData(typedData apitypes.TypedData) (string, error) {
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return "", fmt.Errorf("failed to hash domain: %w", err)
	}
	structHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return "", fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := []byte("\x19\x01")
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, structHash...)
	hash := crypto.Keccak256Hash(rawData)

	signature, err := crypto.Sign(hash.Bytes(), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	// contracts expect v in {27, 28}
	if signature[64] < 27 {
		signature[64] += 27
	}
	return "0x" + common.Bytes2Hex(signature), nil
}

func (w *EthWallet) Allowance(ctx context.Context, token, spender string) (*big.Int, error) {
	data, err := w.erc20.Pack("allowance", w.address, common.HexToAddress(spender))
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance call: %w", err)
	}
	tokenAddr := common.HexToAddress(token)
	raw, err := w.client.CallContract(ctx, ethereum.CallMsg{From: w.address, To: &tokenAddr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("allowance call failed: %w", err)
	}
	results, err := w.erc20.Unpack("allowance", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack allowance: %w", err)
	}
	allowance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance result type %T", results[0])
	}
	return allowance, nil
}

func (w *EthWallet) Approve(ctx context.Context, token, spender string, amount *big.Int) (string, error) {
	data, err := w.erc20.Pack("approve", common.HexToAddress(spender), amount)
	if err != nil {
		return "", fmt.Errorf("failed to pack approve call: %w", err)
	}
	return w.sendTx(ctx, common.HexToAddress(token), nil, data)
}

func (w *EthWallet) WrapNative(ctx context.Context, wrappedToken string, amount *big.Int) (string, error) {
	data, err := w.weth.Pack("deposit")
	if err != nil {
		return "", fmt.Errorf("failed to pack deposit call: %w", err)
	}
	return w.sendTx(ctx, common.HexToAddress(wrappedToken), amount, data)
}

func (w *EthWallet) CancelOrderV1(ctx context.Context, twapAddress string, orderID uint64) (string, error) {
	data, err := w.twap.Pack("cancel", orderID)
	if err != nil {
		return "", fmt.Errorf("failed to pack cancel call: %w", err)
	}
	return w.sendTx(ctx, common.HexToAddress(twapAddress), nil, data)
}

func (w *EthWallet) CancelOrdersV2(ctx context.Context, repermitAddress string, hashes []string) (string, error) {
	orderHashes := make([][32]byte, 0, len(hashes))
	for _, h := range hashes {
		orderHashes = append(orderHashes, common.HexToHash(h))
	}
	data, err := w.repermit.Pack("cancel", orderHashes)
	if err != nil {
		return "", fmt.Errorf("failed to pack cancel call: %w", err)
	}
	return w.sendTx(ctx, common.HexToAddress(repermitAddress), nil, data)
}

func (w *EthWallet) sendTx(ctx context.Context, to common.Address, value *big.Int, data []byte) (string, error) {
	nonce, err := w.client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}
	if value == nil {
		value = big.NewInt(0)
	}

	gasLimit, err := w.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  w.address,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}
	gasLimit = gasLimit * 120 / 100

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(w.chainID), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := w.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	return signedTx.Hash().Hex(), nil
}
