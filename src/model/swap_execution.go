package model

type SwapStatus string

const (
	// SwapStatusUnset is the idle state; also what a wallet rejection
	// resets to, so the user can retry without a failure banner.
	SwapStatusUnset   SwapStatus = ""
	SwapStatusLoading SwapStatus = "loading"
	SwapStatusSuccess SwapStatus = "success"
	SwapStatusFailed  SwapStatus = "failed"
)

type SwapStep string

const (
	SwapStepWrap    SwapStep = "wrap"
	SwapStepApprove SwapStep = "approve"
	SwapStepSwap    SwapStep = "swap"
)

// ParsedError is the classified, displayable form of a failure. Message is
// only surfaced in non-production builds; Code is always shown.
type ParsedError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// SwapExecution tracks one submission attempt. It is owned exclusively by
// that attempt: created when the submission opens, reset on a new attempt.
// StepIndex/TotalSteps are a snapshot taken at attempt start and are never
// recomputed mid-attempt, even if balances or allowance change concurrently.
type SwapExecution struct {
	Status        SwapStatus   `json:"status"`
	CurrentStep   SwapStep     `json:"currentStep,omitempty"`
	StepIndex     int          `json:"stepIndex"`
	TotalSteps    int          `json:"totalSteps"`
	WrapTxHash    string       `json:"wrapTxHash,omitempty"`
	ApproveTxHash string       `json:"approveTxHash,omitempty"`
	TxHash        string       `json:"txHash,omitempty"`
	ParsedError   *ParsedError `json:"parsedError,omitempty"`
}
