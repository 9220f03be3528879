// Package bot turns chat messages into checkout ledger operations and replies.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/celerix-dev/alphabot/internal/engine"
)

// Command keywords, matched as lower-case substrings.
const (
	CmdCheckout = "checkout"
	CmdCheckin  = "checkin"
	CmdHelp     = "help"
	CmdStatus   = "status"
	FlagForce   = "-force"
)

// Command is the classified intent of a message.
type Command int

const (
	Unknown Command = iota
	Checkout
	Checkin
	Help
	Status
)

func (c Command) String() string {
	switch c {
	case Checkout:
		return CmdCheckout
	case Checkin:
		return CmdCheckin
	case Help:
		return CmdHelp
	case Status:
		return CmdStatus
	}
	return "unknown"
}

// Parse classifies lower-cased text. Keywords may appear anywhere, even inside
// other words, and are checked in precedence order.
func Parse(text string) (Command, bool) {
	forced := strings.Contains(text, FlagForce)
	switch {
	case strings.Contains(text, CmdCheckout):
		return Checkout, forced
	case strings.Contains(text, CmdCheckin):
		return Checkin, forced
	case strings.Contains(text, CmdHelp):
		return Help, false
	case strings.Contains(text, CmdStatus):
		return Status, false
	}
	return Unknown, false
}

// Message is an inbound chat message.
type Message struct {
	Channel string
	User    string
	Text    string
}

// Messenger posts replies to a channel.
type Messenger interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// Ledger is the checkout state the dispatcher mutates.
type Ledger interface {
	Checkout(actor string, forced bool) (engine.Outcome, error)
	Checkin(actor string, forced bool) (engine.Outcome, error)
	Status() (engine.LockState, time.Duration, error)
}

// UsageRecorder appends the audit trail.
type UsageRecorder interface {
	Append(actor string, at time.Time, text string) error
}

// Config holds the dispatcher settings.
type Config struct {
	BotUserID    string
	WakeWord     string
	ResourceName string
}

// Dispatcher handles one message at a time.
type Dispatcher struct {
	mu        sync.Mutex
	cfg       Config
	resolver  *Resolver
	ledger    Ledger
	usage     UsageRecorder
	messenger Messenger
	clock     func() time.Time
}

// NewDispatcher wires the dispatcher. Empty config fields fall back to the
// FlatSat defaults.
func NewDispatcher(cfg Config, resolver *Resolver, ledger Ledger, usage UsageRecorder, messenger Messenger) *Dispatcher {
	if cfg.WakeWord == "" {
		cfg.WakeWord = "alphabot"
	}
	cfg.WakeWord = strings.ToLower(cfg.WakeWord)
	if cfg.ResourceName == "" {
		cfg.ResourceName = "FlatSat Workstation"
	}
	return &Dispatcher{
		cfg:       cfg,
		resolver:  resolver,
		ledger:    ledger,
		usage:     usage,
		messenger: messenger,
		clock:     time.Now,
	}
}

// Handle processes msg to completion: resolve, log, execute, reply.
// Messages from the bot itself or without the wake-word are dropped silently.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) error {
	text := strings.ToLower(msg.Text)
	if msg.User == d.cfg.BotUserID || !strings.Contains(text, d.cfg.WakeWord) {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	actor := d.resolver.Resolve(ctx, msg.User)
	if err := d.usage.Append(actor, d.clock(), text); err != nil {
		slog.Error("Failed to write usage log", "error", err)
	}

	cmd, forced := Parse(text)
	slog.Info("Command received",
		"command", cmd.String(),
		"forced", forced,
		"actor", actor,
		"channel", msg.Channel,
	)

	reply, err := d.execute(cmd, actor, forced)
	if err != nil {
		return fmt.Errorf("%s by %s: %w", cmd, actor, err)
	}

	if err := d.messenger.PostMessage(ctx, msg.Channel, reply); err != nil {
		return fmt.Errorf("failed to post reply: %w", err)
	}
	return nil
}

func (d *Dispatcher) execute(cmd Command, actor string, forced bool) (string, error) {
	switch cmd {
	case Checkout:
		out, err := d.ledger.Checkout(actor, forced)
		if err != nil {
			return "", err
		}
		slog.Info("Checkout processed", "actor", actor, "result", out.Result.String(), "holder", out.Holder)
		return d.outcomeText(out), nil

	case Checkin:
		out, err := d.ledger.Checkin(actor, forced)
		if err != nil {
			return "", err
		}
		slog.Info("Checkin processed", "actor", actor, "result", out.Result.String(), "holder", out.Holder)
		return d.outcomeText(out), nil

	case Help:
		return d.helpText(), nil

	case Status:
		state, elapsed, err := d.ledger.Status()
		if err != nil {
			return "", err
		}
		return d.statusText(state, elapsed), nil
	}
	return d.unknownText(), nil
}
