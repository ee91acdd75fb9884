package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"spotengine/src/analytics"
	"spotengine/src/connectors"
	"spotengine/src/model"
	"spotengine/src/repository"
)

// SwapClient is the slice of the hub connector the swap flow needs.
type SwapClient interface {
	GetQuote(ctx context.Context, req connectors.QuoteRequest) (*model.Quote, error)
	SubmitSwap(ctx context.Context, quote *model.Quote, signature string) error
	WaitForSwapStatus(ctx context.Context, sessionID, user string) (string, error)
	GetTxDetails(ctx context.Context, txHash string, quote *model.Quote) (*connectors.TxDetails, error)
}

// SwapController drives one swap at a time through the step machine:
// wrap the native asset if needed, approve the spender if needed, then
// sign, submit and confirm.
type SwapController struct {
	hub      SwapClient
	wallet   connectors.Wallet
	recorder *analytics.Recorder
	excRepo  *repository.ExceptionRepository
	config   Config
	chainID  uint64

	// OnBalancesStale fires after every attempt, settled either way;
	// any step may have moved funds before failing.
	OnBalancesStale func()

	mu          sync.Mutex
	execution   model.SwapExecution
	quotePaused bool
}

func NewSwapController(
	hub SwapClient,
	wallet connectors.Wallet,
	recorder *analytics.Recorder,
	excRepo *repository.ExceptionRepository,
	chainID uint64,
) *SwapController {
	return &SwapController{
		hub:      hub,
		wallet:   wallet,
		recorder: recorder,
		excRepo:  excRepo,
		config:   GetConfig(),
		chainID:  chainID,
	}
}

// QuotePaused reports whether the background quote loop must hold off; the
// quote in flight belongs to the attempt until it settles.
func (c *SwapController) QuotePaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quotePaused
}

// Execution returns a copy of the current attempt state.
func (c *SwapController) Execution() model.SwapExecution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.execution
}

// ComputeSteps decides the step list for a quote. The result is frozen
// into the execution state for the whole attempt, so the progress display
// never renumbers mid-flight even after the wrap or approval changes the
// world the computation was based on.
func (c *SwapController) ComputeSteps(ctx context.Context, quote *model.Quote) ([]model.SwapStep, error) {
	var steps []model.SwapStep

	approvalToken := quote.InToken
	if model.IsNativeAddress(quote.InToken) {
		steps = append(steps, model.SwapStepWrap)
		approvalToken = model.WrappedNativeAddress(c.chainID)
		if approvalToken == "" {
			return nil, fmt.Errorf("no wrapped native token for chain %d", c.chainID)
		}
	}

	inAmount, ok := parseAmount(quote.InAmount)
	if !ok {
		return nil, fmt.Errorf("invalid in amount %q", quote.InAmount)
	}
	allowance, err := c.wallet.Allowance(ctx, approvalToken, c.config.RePermitAddress)
	if err != nil {
		return nil, fmt.Errorf("allowance check failed: %w", err)
	}
	if allowance.Cmp(inAmount) < 0 {
		steps = append(steps, model.SwapStepApprove)
	}

	steps = append(steps, model.SwapStepSwap)
	return steps, nil
}

// ExecuteSwap runs the whole attempt. A signer rejection resets the state
// silently and is not an error; every other failure marks the attempt
// failed with a parsed error.
func (c *SwapController) ExecuteSwap(ctx context.Context, quote *model.Quote) error {
	if quote == nil {
		return connectors.ErrMissingQuote
	}

	c.mu.Lock()
	if c.quotePaused {
		c.mu.Unlock()
		return fmt.Errorf("swap already in flight")
	}
	c.quotePaused = true
	c.mu.Unlock()

	defer c.onSettled()

	steps, err := c.ComputeSteps(ctx, quote)
	if err != nil {
		c.fail(ctx, "ComputeSteps", err)
		return err
	}

	c.mu.Lock()
	c.execution = model.SwapExecution{
		Status:     model.SwapStatusLoading,
		TotalSteps: len(steps),
	}
	c.mu.Unlock()

	for _, step := range steps {
		c.setStep(step)

		switch step {
		case model.SwapStepWrap:
			if err := c.wrap(ctx, quote); err != nil {
				if connectors.IsRejectedError(err) {
					c.resetRejected()
					return nil
				}
				c.fail(ctx, "wrap", err)
				return err
			}
		case model.SwapStepApprove:
			if err := c.approve(ctx, quote); err != nil {
				if connectors.IsRejectedError(err) {
					c.resetRejected()
					return nil
				}
				c.fail(ctx, "approve", err)
				return err
			}
		case model.SwapStepSwap:
			rejected, err := c.swap(ctx, quote)
			if rejected {
				c.resetRejected()
				return nil
			}
			if err != nil {
				c.fail(ctx, "swap", err)
				return err
			}
		}

		c.advanceStep()
	}

	c.mu.Lock()
	c.execution.Status = model.SwapStatusSuccess
	c.mu.Unlock()
	return nil
}

func (c *SwapController) wrap(ctx context.Context, quote *model.Quote) error {
	amount, ok := parseAmount(quote.InAmount)
	if !ok {
		return fmt.Errorf("invalid in amount %q", quote.InAmount)
	}
	wrapped := model.WrappedNativeAddress(c.chainID)

	c.recorder.OnRequest(analytics.StageWrap, map[string]interface{}{"amount": quote.InAmount})
	txHash, err := c.wallet.WrapNative(ctx, wrapped, amount)
	if err != nil {
		c.recorder.OnFailed(analytics.StageWrap, err.Error())
		return fmt.Errorf("wrap failed: %w", err)
	}
	c.recorder.OnSuccess(analytics.StageWrap, map[string]interface{}{"txHash": txHash})

	c.mu.Lock()
	c.execution.WrapTxHash = txHash
	c.mu.Unlock()
	return nil
}

func (c *SwapController) approve(ctx context.Context, quote *model.Quote) error {
	token := quote.InToken
	if model.IsNativeAddress(token) {
		token = model.WrappedNativeAddress(c.chainID)
	}

	amount := maxApproval()
	if c.config.ApproveExact {
		exact, ok := parseAmount(quote.InAmount)
		if !ok {
			return fmt.Errorf("invalid in amount %q", quote.InAmount)
		}
		amount = exact
	}

	c.recorder.OnRequest(analytics.StageApproval, map[string]interface{}{"token": token})
	txHash, err := c.wallet.Approve(ctx, token, c.config.RePermitAddress, amount)
	if err != nil {
		c.recorder.OnFailed(analytics.StageApproval, err.Error())
		return fmt.Errorf("approve failed: %w", err)
	}
	c.recorder.OnSuccess(analytics.StageApproval, map[string]interface{}{"txHash": txHash})

	c.mu.Lock()
	c.execution.ApproveTxHash = txHash
	c.mu.Unlock()
	return nil
}

// swap re-validates the quote, signs it, submits and confirms. The bool
// result reports a signer rejection, which the caller treats as a silent
// reset rather than a failure.
func (c *SwapController) swap(ctx context.Context, quote *model.Quote) (bool, error) {
	quote, err := c.prepareQuote(ctx, quote)
	if err != nil {
		return false, err
	}

	var typedData apitypes.TypedData
	if err := json.Unmarshal(quote.SignablePayload, &typedData); err != nil {
		return false, fmt.Errorf("quote carries no signable payload: %w", err)
	}

	c.recorder.OnRequest(analytics.StageSignature, nil)
	signature, err := c.wallet.SignTypedData(typedData)
	if err != nil {
		if connectors.IsRejectedError(err) {
			c.recorder.OnFailed(analytics.StageSignature, "rejected")
			return true, nil
		}
		c.recorder.OnFailed(analytics.StageSignature, err.Error())
		return false, fmt.Errorf("signing failed: %w", err)
	}
	c.recorder.OnSuccess(analytics.StageSignature, nil)

	c.recorder.OnRequest(analytics.StageSwap, map[string]interface{}{"sessionId": quote.SessionID})
	if err := c.hub.SubmitSwap(ctx, quote, signature); err != nil {
		c.recorder.OnFailed(analytics.StageSwap, err.Error())
		return false, err
	}

	txHash, err := c.hub.WaitForSwapStatus(ctx, quote.SessionID, quote.User)
	if err != nil {
		c.recorder.OnFailed(analytics.StageSwap, err.Error())
		return false, err
	}

	c.mu.Lock()
	c.execution.TxHash = txHash
	c.mu.Unlock()
	c.recorder.OnSuccess(analytics.StageSwap, map[string]interface{}{"txHash": txHash})

	if _, err := c.hub.GetTxDetails(ctx, txHash, quote); err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	return false, nil
}

// prepareQuote re-fetches a stale quote right before signing. The fresher
// quote only replaces the held one when it does not lower the guaranteed
// output; a worse re-quote must not degrade what the user already saw.
func (c *SwapController) prepareQuote(ctx context.Context, quote *model.Quote) (*model.Quote, error) {
	if model.IsFreshQuote(quote, connectors.QuoteFreshnessSeconds) {
		return quote, nil
	}

	fresh, err := c.hub.GetQuote(ctx, connectors.QuoteRequest{
		FromToken: quote.InToken,
		ToToken:   quote.OutToken,
		InAmount:  quote.InAmount,
		Account:   quote.User,
		Slippage:  quote.Slippage,
		QS:        quote.QS,
	})
	if err != nil {
		return nil, fmt.Errorf("requote failed: %w", err)
	}

	held := decimalOrZero(quote.MinAmountOut)
	replacement := decimalOrZero(fresh.MinAmountOut)
	if replacement.LessThan(held) {
		logger.WithFields(logger.Fields{
			"held":        quote.MinAmountOut,
			"replacement": fresh.MinAmountOut,
		}).Info("requote returned a lower output, keeping the held quote")
		return quote, nil
	}
	return fresh, nil
}

// resetRejected clears the attempt without surfacing an error. Declining a
// wallet request at any step is a user decision, not a failure.
func (c *SwapController) resetRejected() {
	logger.Info("wallet request rejected, resetting swap state")
	c.mu.Lock()
	c.execution = model.SwapExecution{}
	c.mu.Unlock()
}

func (c *SwapController) setStep(step model.SwapStep) {
	c.mu.Lock()
	c.execution.CurrentStep = step
	c.mu.Unlock()
}

func (c *SwapController) advanceStep() {
	c.mu.Lock()
	if c.execution.StepIndex < c.execution.TotalSteps-1 {
		c.execution.StepIndex++
	}
	c.mu.Unlock()
}

func (c *SwapController) fail(ctx context.Context, method string, err error) {
	parsed := connectors.ParseError(err)
	c.mu.Lock()
	c.execution.Status = model.SwapStatusFailed
	c.execution.ParsedError = parsed
	c.mu.Unlock()

	Capture(ctx, c.excRepo, "spotengine", "controller", method, "error", err, map[string]interface{}{
		"chainId": c.chainID,
	})
}

// onSettled releases the quote loop and triggers a balance refresh no
// matter how the attempt ended.
func (c *SwapController) onSettled() {
	c.mu.Lock()
	c.quotePaused = false
	c.mu.Unlock()
	if c.OnBalancesStale != nil {
		c.OnBalancesStale()
	}
}

func maxApproval() *big.Int {
	max, _ := new(big.Int).SetString(model.MaxUint256, 10)
	return max
}

func decimalOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
