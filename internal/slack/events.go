package slack

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/slack-go/slack/slackevents"
)

// ErrInvalidPayload is returned for request bodies that are not JSON.
var ErrInvalidPayload = errors.New("invalid event payload")

// EventKind classifies an Events API delivery.
type EventKind int

const (
	EventIgnored EventKind = iota
	EventURLVerification
	EventMessage
)

// Event is the part of an Events API delivery the bot acts on.
type Event struct {
	Kind      EventKind
	ID        string
	Challenge string
	Channel   string
	User      string
	Text      string
}

// DecodeEvent parses an Events API request body. Requests are authenticated
// by signature before this, so the legacy verification token is not checked.
func DecodeEvent(body []byte) (Event, error) {
	if !json.Valid(body) {
		return Event{}, ErrInvalidPayload
	}

	outer, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		// Inner event types slack-go does not model are not ours either
		slog.Debug("Unhandled Slack event", "error", err)
		return Event{Kind: EventIgnored}, nil
	}

	switch outer.Type {
	case slackevents.URLVerification:
		var ch slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &ch); err != nil {
			return Event{}, ErrInvalidPayload
		}
		return Event{Kind: EventURLVerification, Challenge: ch.Challenge}, nil
	case slackevents.CallbackEvent:
	default:
		return Event{Kind: EventIgnored}, nil
	}

	ev := Event{Kind: EventIgnored}
	switch cb := outer.Data.(type) {
	case *slackevents.EventsAPICallbackEvent:
		ev.ID = cb.EventID
	case slackevents.EventsAPICallbackEvent:
		ev.ID = cb.EventID
	}

	msg, ok := outer.InnerEvent.Data.(*slackevents.MessageEvent)
	// Edits, deletions and bot posts carry a subtype and no fresh user text
	if !ok || msg.SubType != "" {
		return ev, nil
	}

	ev.Kind = EventMessage
	ev.Channel = msg.Channel
	ev.User = msg.User
	ev.Text = msg.Text
	return ev, nil
}
