package notification

import (
	"context"
	"log/slog"
)

const (
	// KindDepositCredited indicates a wallet was funded.
	KindDepositCredited = "deposit_credited"
	// KindWithdrawalCompleted indicates a payout was transferred and debited.
	KindWithdrawalCompleted = "withdrawal_completed"
	// KindReconciliationAlert is the operator channel for funds that moved at
	// the processor without a matching ledger write. Never user-facing.
	KindReconciliationAlert = "reconciliation_alert"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the
// logger. Reconciliation alerts are logged at Error so they surface in
// operator tooling.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	if message.Kind == KindReconciliationAlert {
		n.logger.Error("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
