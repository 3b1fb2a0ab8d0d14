package hub

import (
	"time"

	"Voxline/internal/model"

	"github.com/benbjohnson/clock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActiveCall is the in-memory view of a call that still occupies its pair.
// The store stays authoritative; this view drives ring timers and the
// monitor.
type ActiveCall struct {
	CallID     primitive.ObjectID
	CallerID   primitive.ObjectID
	ReceiverID primitive.ObjectID
	CallType   string
	Status     model.CallStatus
	CreatedAt  time.Time

	ringTimer *clock.Timer
}

// -----------------------------------------------------------------
// Active call tracking
// -----------------------------------------------------------------

// trackCall records a new initiated call and arms its ring timer
func (ch *CallHandler) trackCall(call *model.Call) {
	ac := &ActiveCall{
		CallID:     call.ID,
		CallerID:   call.CallerID,
		ReceiverID: call.ReceiverID,
		CallType:   call.Type,
		Status:     call.Status,
		CreatedAt:  call.CreatedAt,
	}

	if ch.ringTimeout > 0 {
		callID := call.ID
		ac.ringTimer = ch.hub.clock.AfterFunc(ch.ringTimeout, func() {
			ch.expireCall(callID)
		})
	}

	ch.activeCallsMu.Lock()
	ch.activeCalls[call.ID] = ac
	ch.activeCallsMu.Unlock()
}

// markOngoing disarms the ring timer of an answered call
func (ch *CallHandler) markOngoing(callID primitive.ObjectID) {
	ch.activeCallsMu.Lock()
	defer ch.activeCallsMu.Unlock()

	ac, ok := ch.activeCalls[callID]
	if !ok {
		return
	}
	if ac.ringTimer != nil {
		ac.ringTimer.Stop()
		ac.ringTimer = nil
	}
	ac.Status = model.CallStatusOngoing
}

// untrackCall forgets a call that reached a terminal status
func (ch *CallHandler) untrackCall(callID primitive.ObjectID) {
	ch.activeCallsMu.Lock()
	defer ch.activeCallsMu.Unlock()

	if ac, ok := ch.activeCalls[callID]; ok {
		if ac.ringTimer != nil {
			ac.ringTimer.Stop()
		}
		delete(ch.activeCalls, callID)
	}
}

// ActiveCalls returns a copy of the tracked calls
func (ch *CallHandler) ActiveCalls() []ActiveCall {
	ch.activeCallsMu.RLock()
	defer ch.activeCallsMu.RUnlock()

	calls := make([]ActiveCall, 0, len(ch.activeCalls))
	for _, ac := range ch.activeCalls {
		cp := *ac
		cp.ringTimer = nil
		calls = append(calls, cp)
	}
	return calls
}

// isStale reports whether an initiated call has outlived its ring timeout
// without a timer to expire it, as after a restart
func (ch *CallHandler) isStale(call *model.Call) bool {
	if ch.ringTimeout <= 0 || call.Status != model.CallStatusInitiated {
		return false
	}
	return ch.hub.clock.Since(call.CreatedAt) >= ch.ringTimeout
}

// Stop disarms every ring timer
func (ch *CallHandler) Stop() {
	ch.activeCallsMu.Lock()
	defer ch.activeCallsMu.Unlock()

	for _, ac := range ch.activeCalls {
		if ac.ringTimer != nil {
			ac.ringTimer.Stop()
			ac.ringTimer = nil
		}
	}
}
