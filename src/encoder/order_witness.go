// Package encoder builds the EIP-712 payload for a conditional order. The
// resulting typed data is what the wallet signs and the order store verifies
// against the on-chain RePermit contract.
package encoder

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"spotengine/src/externalmodel"
	"spotengine/src/model"
)

const (
	primaryType      = "RePermitWitnessTransferFrom"
	domainName       = "RePermit"
	domainVersion    = "1"
	defaultFreshness = 60
)

var eip712Types = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"RePermitWitnessTransferFrom": {
		{Name: "permitted", Type: "TokenPermissions"},
		{Name: "spender", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
		{Name: "witness", Type: "Order"},
	},
	"TokenPermissions": {
		{Name: "token", Type: "address"},
		{Name: "amount", Type: "uint256"},
	},
	"Order": {
		{Name: "reactor", Type: "address"},
		{Name: "executor", Type: "address"},
		{Name: "exchange", Type: "Exchange"},
		{Name: "swapper", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
		{Name: "chainid", Type: "uint256"},
		{Name: "exclusivity", Type: "uint256"},
		{Name: "epoch", Type: "uint256"},
		{Name: "slippage", Type: "uint256"},
		{Name: "freshness", Type: "uint256"},
		{Name: "input", Type: "Input"},
		{Name: "output", Type: "Output"},
	},
	"Exchange": {
		{Name: "adapter", Type: "address"},
		{Name: "ref", Type: "address"},
		{Name: "share", Type: "uint256"},
		{Name: "data", Type: "bytes"},
	},
	"Input": {
		{Name: "token", Type: "address"},
		{Name: "amount", Type: "uint256"},
		{Name: "maxAmount", Type: "uint256"},
	},
	"Output": {
		{Name: "token", Type: "address"},
		{Name: "limit", Type: "uint256"},
		{Name: "stop", Type: "uint256"},
		{Name: "recipient", Type: "address"},
	},
}

// SpotConfig identifies one protocol deployment: the settlement contracts
// plus the fee recipient baked into every order.
type SpotConfig struct {
	Reactor  string
	Executor string
	Adapter  string
	Fee      string
	RePermit string
}

// OrderParams are the user-facing inputs of a conditional order. Amounts are
// base-unit decimal strings.
type OrderParams struct {
	ChainID               uint64
	SrcToken              string
	DstToken              string
	SrcAmount             string
	SrcAmountPerTrade     string
	DstMinAmountPerTrade  string
	TriggerAmountPerTrade string
	DeadlineMillis        int64
	FillDelayMillis       int64
	Slippage              int
	Account               string
	// Freshness overrides the quote max age baked into the witness;
	// zero means the default.
	Freshness int
}

// OrderData pairs the submit-ready order with its signable form.
type OrderData struct {
	Order     externalmodel.RePermitOrder
	TypedData apitypes.TypedData
}

// nowMillis is a variable so tests can pin the nonce.
var nowMillis = func() int64 {
	return time.Now().UnixMilli()
}

// BuildOrderData assembles the RePermit order and its EIP-712 payload.
//
// The stop and limit outputs encode the order semantics: a take-profit
// order disables the stop bound (max uint256) and uses the trigger as the
// limit, while every other type uses the trigger as the stop and the
// per-trade minimum as the limit.
func BuildOrderData(params OrderParams, config SpotConfig, orderType model.OrderType) (*OrderData, error) {
	if params.ChainID == 0 {
		return nil, fmt.Errorf("chain id is not set")
	}
	if params.SrcAmount == "" || params.SrcAmountPerTrade == "" {
		return nil, fmt.Errorf("source amounts are not set")
	}

	nonce := fmt.Sprint(nowMillis())
	deadline := fmt.Sprint(params.DeadlineMillis / 1000)
	epoch := params.FillDelayMillis / 1000

	freshness := params.Freshness
	if freshness == 0 {
		freshness = defaultFreshness
	}

	trigger := orZero(params.TriggerAmountPerTrade)
	minOut := orZero(params.DstMinAmountPerTrade)

	stop := trigger
	limit := minOut
	if orderType == model.OrderTypeTakeProfit {
		stop = model.MaxUint256
		limit = trigger
	}

	order := externalmodel.RePermitOrder{
		Permitted: externalmodel.RePermitPermitted{
			Token:  params.SrcToken,
			Amount: params.SrcAmount,
		},
		Spender:  config.Reactor,
		Nonce:    nonce,
		Deadline: deadline,
		Witness: externalmodel.RePermitWitness{
			Reactor:  config.Reactor,
			Executor: config.Executor,
			Exchange: externalmodel.RePermitExchange{
				Adapter: config.Adapter,
				Ref:     config.Fee,
				Share:   0,
				Data:    "0x",
			},
			Swapper:     params.Account,
			Nonce:       nonce,
			Deadline:    deadline,
			ChainID:     params.ChainID,
			Exclusivity: 0,
			Epoch:       epoch,
			Slippage:    params.Slippage,
			Freshness:   freshness,
			Input: externalmodel.RePermitInput{
				Token:     params.SrcToken,
				Amount:    params.SrcAmountPerTrade,
				MaxAmount: params.SrcAmount,
			},
			Output: externalmodel.RePermitOutput{
				Token:     params.DstToken,
				Limit:     limit,
				Stop:      stop,
				Recipient: params.Account,
			},
		},
	}

	typedData := apitypes.TypedData{
		Types:       eip712Types,
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainId:           math.NewHexOrDecimal256(int64(params.ChainID)),
			VerifyingContract: config.RePermit,
		},
		Message: orderMessage(order),
	}

	return &OrderData{Order: order, TypedData: typedData}, nil
}

// orderMessage flattens the order into the generic map apitypes hashes.
func orderMessage(order externalmodel.RePermitOrder) apitypes.TypedDataMessage {
	w := order.Witness
	return apitypes.TypedDataMessage{
		"permitted": map[string]interface{}{
			"token":  order.Permitted.Token,
			"amount": order.Permitted.Amount,
		},
		"spender":  order.Spender,
		"nonce":    order.Nonce,
		"deadline": order.Deadline,
		"witness": map[string]interface{}{
			"reactor":  w.Reactor,
			"executor": w.Executor,
			"exchange": map[string]interface{}{
				"adapter": w.Exchange.Adapter,
				"ref":     w.Exchange.Ref,
				"share":   fmt.Sprint(w.Exchange.Share),
				"data":    w.Exchange.Data,
			},
			"swapper":     w.Swapper,
			"nonce":       w.Nonce,
			"deadline":    w.Deadline,
			"chainid":     fmt.Sprint(w.ChainID),
			"exclusivity": fmt.Sprint(w.Exclusivity),
			"epoch":       fmt.Sprint(w.Epoch),
			"slippage":    fmt.Sprint(w.Slippage),
			"freshness":   fmt.Sprint(w.Freshness),
			"input": map[string]interface{}{
				"token":     w.Input.Token,
				"amount":    w.Input.Amount,
				"maxAmount": w.Input.MaxAmount,
			},
			"output": map[string]interface{}{
				"token":     w.Output.Token,
				"limit":     w.Output.Limit,
				"stop":      w.Output.Stop,
				"recipient": w.Output.Recipient,
			},
		},
	}
}

func orZero(amount string) string {
	if amount == "" {
		return "0"
	}
	return amount
}
