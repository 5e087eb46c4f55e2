package mail

import (
	"context"

	"billify.site/pkg/billify/logging"
)

type nopSender struct {
	logger logging.Logger
}

// NewNopSender returns a Sender that only logs the messages it is given. It stands in
// when no mail transport could be configured.
func NewNopSender(logger logging.Logger) Sender {
	return nopSender{logger: logger}
}

func (n nopSender) Send(ctx context.Context, msg Message) {
	child.ForLogger(ctx, n.logger).Warnf("email %s to %s dropped: no mail transport", msg.Template, msg.To)
}
