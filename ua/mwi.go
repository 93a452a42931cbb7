package ua

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipua/sip"
)

// Notify is a NOTIFY request received within the subscription dialog.
type Notify struct {
	Target   sip.NameAddr
	Notifier sip.NameAddr
	Contact  sip.NameAddr
	// State is the value of Subscription-State header.
	State       string
	ContentType string
	Body        []byte
	// Request is the full request, if available.
	Request *sip.Request
}

func (n *Notify) LogValue() slog.Value {
	if n == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Any("notifier", n.Notifier),
		slog.String("state", n.State),
		slog.String("content_type", n.ContentType),
		slog.Int("body_len", len(n.Body)),
	)
}

// MessageSummary is the voicemail status reported by a message-summary NOTIFY (RFC 3842).
// Zero value means voicemail status is unknown or MWI is off.
type MessageSummary struct {
	// Waiting is set when the Messages-Waiting status is "yes".
	Waiting bool
	// Messages is the number of new voice messages.
	Messages int
	// Old is the number of old voice messages.
	Old int
	// Account is the user part of Message-Account, the host is dropped
	// since it may be unreachable from behind NAT.
	Account string
}

func (s MessageSummary) String() string {
	return fmt.Sprintf("waiting=%t messages=%d/%d account=%q", s.Waiting, s.Messages, s.Old, s.Account)
}

func (s MessageSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("waiting", s.Waiting),
		slog.Int("messages", s.Messages),
		slog.Int("old", s.Old),
		slog.String("account", s.Account),
	)
}

// Message summary body fields.
const (
	mwiMessagesWaiting = "Messages-Waiting"
	mwiVoiceMessage    = "Voice-Message"
	mwiMessageAccount  = "Message-Account"
)

// ParseMessageSummary parses the application/simple-message-summary body.
//
// Lines have the form "Name: value", names are case-insensitive, unknown names are ignored.
// Non-numeric new messages count in Voice-Message results in an error wrapping [ErrMalformedBody].
func ParseMessageSummary(body []byte) (MessageSummary, error) {
	var sum MessageSummary
	for line := range strings.Lines(string(body)) {
		name, val, ok := strings.Cut(strings.TrimRight(line, "\r\n"), ":")
		if !ok {
			continue
		}
		name, val = strings.TrimSpace(name), strings.TrimSpace(val)

		switch {
		case strings.EqualFold(name, mwiMessagesWaiting):
			sum.Waiting = strings.EqualFold(val, "yes")
		case strings.EqualFold(name, mwiVoiceMessage):
			newMsgs, oldMsgs, _ := strings.Cut(val, "/")
			n, err := strconv.Atoi(strings.TrimSpace(newMsgs))
			if err != nil {
				return MessageSummary{}, errtrace.Wrap(newMalformedBodyError("invalid %s count %q", mwiVoiceMessage, newMsgs))
			}
			sum.Messages = n
			// old count may be followed by urgent counts: "2/8 (0/2)"
			oldMsgs, _, _ = strings.Cut(strings.TrimSpace(oldMsgs), " ")
			if n, err := strconv.Atoi(oldMsgs); err == nil {
				sum.Old = n
			}
		case strings.EqualFold(name, mwiMessageAccount):
			sum.Account, _, _ = strings.Cut(val, "@")
		}
	}
	return sum, nil
}
