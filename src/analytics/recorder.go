// Package analytics records stage-keyed telemetry for the quote and swap
// flows. The recorder is an injected instance whose lifetime is tied to the
// session, not a process-wide global; every send is fire-and-forget and can
// never crash or block the caller.
package analytics

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

type Stage string

const (
	StageQuote     Stage = "quote"
	StageWrap      Stage = "wrap"
	StageApproval  Stage = "approval"
	StageSignature Stage = "signature"
	StageSwap      Stage = "swap"
	StageCancel    Stage = "cancel"
)

type status string

const (
	statusWaiting status = "waiting"
	statusSuccess status = "success"
	statusFailed  status = "failed"
)

type Recorder struct {
	http     *resty.Client
	chainID  uint64
	partner  string
	disabled bool

	mu        sync.Mutex
	sessionID string
	started   map[Stage]time.Time
}

func NewRecorder(chainID uint64, partner string, disabled bool) *Recorder {
	config := GetConfig()
	return &Recorder{
		http: resty.New().
			SetBaseURL(config.Endpoint).
			SetTimeout(config.SendTimeout),
		chainID:   chainID,
		partner:   partner,
		disabled:  disabled,
		sessionID: newSessionID(),
		started:   map[Stage]time.Time{},
	}
}

func newSessionID() string {
	return "id_" + uuid.NewString()
}

// SessionID returns the current correlation id. The hub echoes it back so
// server-side quote caching and BI events line up with client events.
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// NewSession mints a fresh correlation id; called when the quoted pair,
// amount or account changes.
func (r *Recorder) NewSession() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionID = newSessionID()
	r.started = map[Stage]time.Time{}
	return r.sessionID
}

func (r *Recorder) OnRequest(stage Stage, data map[string]interface{}) {
	r.mu.Lock()
	r.started[stage] = time.Now()
	r.mu.Unlock()
	r.send(stage, statusWaiting, data)
}

func (r *Recorder) OnSuccess(stage Stage, data map[string]interface{}) {
	r.send(stage, statusSuccess, data)
}

func (r *Recorder) OnFailed(stage Stage, errMsg string) {
	r.send(stage, statusFailed, map[string]interface{}{"error": errMsg})
}

func (r *Recorder) stageMillis(stage Stage) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	start, ok := r.started[stage]
	if !ok {
		return 0
	}
	return time.Since(start).Milliseconds()
}

// send ships one event in the background. All failure modes, including
// panics from bad payloads, are swallowed; telemetry must never affect
// control flow.
func (r *Recorder) send(stage Stage, st status, data map[string]interface{}) {
	if r.disabled {
		return
	}

	payload := map[string]interface{}{
		"sessionId":   r.SessionID(),
		"stage":       string(stage),
		"status":      string(st),
		"stageMillis": r.stageMillis(stage),
		"chainId":     r.chainID,
		"partner":     r.partner,
		"timestamp":   time.Now().UnixMilli(),
	}
	for k, v := range data {
		payload[k] = v
	}

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.WithField("panic", fmt.Sprint(rec)).Debug("analytics send panicked")
			}
		}()
		if _, err := r.http.R().SetBody(payload).Post(""); err != nil {
			logger.WithError(err).Debug("analytics send failed")
		}
	}()
}
