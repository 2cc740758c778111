package buffer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-iusync/codec"
	"github.com/spacemeshos/go-iusync/log"
	"github.com/spacemeshos/go-iusync/wire"
)

// resend asks the writer of uid to re-publish it on the hidden category. The call blocks
// for at most RemoteCallTimeout. The re-published unit arrives as a regular announcement.
func (b *InputBuffer) resend(ctx context.Context, uid, writer string) error {
	if writer == "" {
		b.logger.Debug("no writer to request resend from", log.ZContext(ctx), zap.String("uid", uid))
		return nil
	}
	remote, err := b.endpointFor(writer)
	if err != nil {
		return err
	}
	req := codec.MustEncode(&wire.ResendRequest{UID: uid, HiddenScopeName: b.uniqueShortName})

	ctx, cancel := context.WithTimeout(ctx, b.cfg.RemoteCallTimeout)
	defer cancel()
	start := time.Now()
	resp, err := remote.Call(ctx, wire.MethodResendRequest, req)
	if err != nil {
		observeResend(resendFailed, start)
		return fmt.Errorf("call %s on %s: %w", wire.MethodResendRequest, writer, err)
	}
	var reply wire.RevisionReply
	if err := codec.Decode(resp, &reply); err != nil {
		observeResend(resendFailed, start)
		return fmt.Errorf("decode reply from %s: %w", writer, err)
	}
	if reply.Revision == 0 {
		observeResend(resendRejected, start)
		return fmt.Errorf("%w: owner %s does not have %s", ErrResendFailed, writer, uid)
	}
	observeResend(resendAccepted, start)
	b.logger.Debug("resend request accepted",
		log.ZContext(ctx),
		zap.String("uid", uid),
		zap.String("writer", writer),
		zap.Uint32("revision", reply.Revision),
	)
	return nil
}

func observeResend(result string, start time.Time) {
	resendRequests.WithLabelValues(result).Inc()
	resendLatency.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
