package api

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/warp/leave-engine/entitlement"
)

// =============================================================================
// NOTIFIER - Fired after request state changes
// =============================================================================

// Notifier is called after a request changes state. Implementations deliver
// email or chat messages; content and templates live outside this service.
type Notifier interface {
	RequestStatusChanged(ctx context.Context, r entitlement.LeaveRequest)
}

// LogNotifier is the default Notifier: it records the state change and
// delivers nothing.
type LogNotifier struct {
	Log *logrus.Logger
}

func (n *LogNotifier) RequestStatusChanged(_ context.Context, r entitlement.LeaveRequest) {
	n.Log.WithFields(logrus.Fields{
		"request_id": r.ID,
		"user_id":    r.UserID,
		"status":     r.Status,
	}).Info("leave request status changed")
}
