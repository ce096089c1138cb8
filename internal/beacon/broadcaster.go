package beacon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"remoteid-beacon/internal/logging"
	"remoteid-beacon/internal/remoteid"
	"remoteid-beacon/internal/telemetry"
)

// DefaultInterval is the beacon update cadence.
const DefaultInterval = 200 * time.Millisecond

// Signaler is the downstream process told to stop when broadcasting ends
// abnormally.
type Signaler interface {
	Signal(sig os.Signal) error
}

// Broadcaster encodes a record from its provider on every tick and hands it
// to the writer.
type Broadcaster struct {
	sessionID  string
	provider   telemetry.Provider
	writer     Writer
	interval   time.Duration
	downstream Signaler
	now        func() time.Time

	seq uint64
}

// NewBroadcaster creates a broadcaster with a fresh session id. downstream
// may be nil.
func NewBroadcaster(provider telemetry.Provider, writer Writer, interval time.Duration, downstream Signaler) *Broadcaster {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Broadcaster{
		sessionID:  uuid.NewString(),
		provider:   provider,
		writer:     writer,
		interval:   interval,
		downstream: downstream,
		now:        time.Now,
	}
}

// SessionID identifies this run in recorded beacons.
func (b *Broadcaster) SessionID() string { return b.sessionID }

// Sent returns the number of beacons written so far.
func (b *Broadcaster) Sent() uint64 { return b.seq }

// Run emits one beacon immediately and then one per interval until ctx is
// done or a tick fails. It always returns a non-nil error; on return the
// downstream process, if any, is sent an interrupt.
func (b *Broadcaster) Run(ctx context.Context) (err error) {
	log := logging.FromContext(ctx)
	log.Info("starting broadcaster", "session_id", b.sessionID, "tick_interval", b.interval)
	start := b.now()

	defer func() {
		log.Info("stopping broadcaster", "beacons", humanize.Comma(int64(b.seq)), "elapsed", humanize.RelTime(start, b.now(), "", ""), "err", err)
		if b.downstream == nil {
			return
		}
		if serr := b.downstream.Signal(os.Interrupt); serr != nil && !errors.Is(serr, os.ErrProcessDone) {
			err = errors.Join(err, fmt.Errorf("stop downstream: %w", serr))
		}
	}()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		if err := b.tick(); err != nil {
			return err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// tick builds the next record, encodes it and writes it.
func (b *Broadcaster) tick() error {
	rec := b.provider.Next()
	element, err := remoteid.EncodeHex(rec)
	if err != nil {
		return fmt.Errorf("encode beacon %d: %w", b.seq+1, err)
	}
	b.seq++
	row := Beacon{
		SessionID: b.sessionID,
		Seq:       b.seq,
		Record:    rec,
		Element:   element,
		Timestamp: b.now().UTC(),
	}
	if err := b.writer.Write(row); err != nil {
		return fmt.Errorf("write beacon %d: %w", row.Seq, err)
	}
	return nil
}
