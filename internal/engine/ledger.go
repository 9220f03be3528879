package engine

import (
	"sync"
	"time"
)

// Result identifies which branch of the checkout policy was taken.
type Result int

const (
	CheckedOut Result = iota
	ForceCheckedOut
	CheckoutDenied
	CheckedIn
	ForceCheckedIn
	CheckinDenied
	AlreadyFree
)

var resultNames = map[Result]string{
	CheckedOut:      "checked_out",
	ForceCheckedOut: "force_checked_out",
	CheckoutDenied:  "checkout_denied",
	CheckedIn:       "checked_in",
	ForceCheckedIn:  "force_checked_in",
	CheckinDenied:   "checkin_denied",
	AlreadyFree:     "already_free",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return "unknown"
}

// Outcome describes a checkout or checkin attempt. Holder is whoever the reply
// should name: the new holder after a checkout, the current holder after a
// denial. Elapsed is only set for denied checkouts.
type Outcome struct {
	Result  Result
	Holder  string
	Elapsed time.Duration
	State   LockState
}

// Ledger is the single-writer gate around the state file.
// Every read-decide-write sequence runs under mu.
type Ledger struct {
	mu    sync.Mutex
	file  *StateFile
	clock func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) LedgerOption {
	return func(l *Ledger) { l.clock = clock }
}

// NewLedger wraps file.
func NewLedger(file *StateFile, opts ...LedgerOption) *Ledger {
	l := &Ledger{file: file, clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Checkout grants the resource to actor if it is free or forced.
// A holder asking again without force is denied like anyone else.
func (l *Ledger) Checkout(actor string, forced bool) (Outcome, error) {
	return l.update(func(cur LockState, now time.Time) Outcome {
		switch {
		case cur.Free():
			return Outcome{Result: CheckedOut, Holder: actor}
		case forced:
			return Outcome{Result: ForceCheckedOut, Holder: actor}
		default:
			return Outcome{Result: CheckoutDenied, Holder: cur.Holder, Elapsed: now.Sub(cur.Since)}
		}
	})
}

// Checkin frees the resource if actor holds it or the request is forced.
func (l *Ledger) Checkin(actor string, forced bool) (Outcome, error) {
	return l.update(func(cur LockState, now time.Time) Outcome {
		switch {
		case !cur.Free() && cur.Holder == actor:
			return Outcome{Result: CheckedIn}
		case forced:
			return Outcome{Result: ForceCheckedIn}
		case cur.Free():
			return Outcome{Result: AlreadyFree}
		default:
			return Outcome{Result: CheckinDenied, Holder: cur.Holder}
		}
	})
}

// Status returns the current record and how long it has been held.
func (l *Ledger) Status() (LockState, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, err := l.file.Read()
	if err != nil {
		return LockState{}, 0, err
	}
	if cur.Free() {
		return cur, 0, nil
	}
	return cur, l.clock().Sub(cur.Since), nil
}

// update reads the record, lets decide pick the branch and rewrites the file
// with the resulting holder. The write is unconditional, so a denied attempt
// restarts the holder's clock.
func (l *Ledger) update(decide func(LockState, time.Time) Outcome) (Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, err := l.file.Read()
	if err != nil {
		return Outcome{}, err
	}

	now := l.clock()
	out := decide(cur, now)

	var next LockState
	switch out.Result {
	case CheckedOut, ForceCheckedOut:
		next = LockState{Holder: out.Holder, Since: now}
	case CheckoutDenied, CheckinDenied:
		next = LockState{Holder: cur.Holder, Since: now}
	}

	if err := l.file.Write(next.Holder, now); err != nil {
		return Outcome{}, err
	}
	out.State = next
	return out, nil
}
