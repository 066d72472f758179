package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/wneessen/go-mail"

	"github.com/pkordes/nightspot/internal/domain"
)

// meetingLayouts are the meeting-time formats an invite can be built from.
var meetingLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
}

// ParseMeetingTime interprets a slot key as a wall-clock time in loc.
// RFC 3339 values carry their own offset and ignore loc.
func ParseMeetingTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range meetingLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("notify.ParseMeetingTime: unrecognized meeting time %q", s)
}

// SMTPConfig describes the outgoing mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sender delivers messages over one SMTP session. *mail.Client satisfies it.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailNotifier mails the whole group one message with an iCalendar
// invitation as an alternative part. Slots that do not parse as a time get
// the message without the invitation.
type EmailNotifier struct {
	cfg       SMTPConfig
	loc       *time.Location
	duration  time.Duration
	newSender func(timeout time.Duration) (sender, error)
	now       func() time.Time
}

// NewEmailNotifier returns a notifier that sends through cfg. Meeting times
// are read in loc and invitations last for duration.
func NewEmailNotifier(cfg SMTPConfig, loc *time.Location, duration time.Duration) *EmailNotifier {
	if loc == nil {
		loc = time.UTC
	}
	if duration <= 0 {
		duration = 2 * time.Hour
	}
	n := &EmailNotifier{
		cfg:      cfg,
		loc:      loc,
		duration: duration,
		now:      time.Now,
	}
	n.newSender = n.client
	return n
}

// client builds a go-mail client for one delivery. STARTTLS is used when the
// relay offers it, and the login is skipped without a username. A positive
// timeout bounds every SMTP command, not just the dial.
func (n *EmailNotifier) client(timeout time.Duration) (sender, error) {
	opts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if n.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(n.cfg.Port))
	}
	if timeout > 0 {
		opts = append(opts, mail.WithTimeout(timeout))
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	c, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Notify sends the group its meeting details and returns once the relay has
// accepted the message or ctx has ended.
func (n *EmailNotifier) Notify(ctx context.Context, group []domain.WaitingUser, meetingTime string, venue domain.Venue) error {
	if len(recipients(group)) == 0 {
		return errors.New("notify.EmailNotifier.Notify: empty group")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notify.EmailNotifier.Notify: %w", err)
	}

	msg, err := n.buildMessage(group, meetingTime, venue)
	if err != nil {
		return fmt.Errorf("notify.EmailNotifier.Notify: %w", err)
	}

	var timeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return fmt.Errorf("notify.EmailNotifier.Notify: %w", context.DeadlineExceeded)
		}
	}
	client, err := n.newSender(timeout)
	if err != nil {
		return fmt.Errorf("notify.EmailNotifier.Notify: client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify.EmailNotifier.Notify: %w: %w", domain.ErrProviderUnavailable, err)
	}
	return nil
}

// buildMessage renders a plain-text body and, when the meeting time parses,
// a text/calendar REQUEST alternative.
func (n *EmailNotifier) buildMessage(group []domain.WaitingUser, meetingTime string, venue domain.Venue) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(recipients(group)...); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	m.Subject("Your NightSpot group: " + venue.Name)
	m.SetDateWithValue(n.now())
	m.SetBodyString(mail.TypeTextPlain, plainBody(group, meetingTime, venue))

	if start, err := ParseMeetingTime(meetingTime, n.loc); err == nil {
		m.AddAlternativeString(mail.ContentType("text/calendar; method=REQUEST"), n.invite(group, start, venue))
	}
	return m, nil
}

// invite serializes a METHOD:REQUEST calendar with one event naming every
// member as an attendee.
func (n *EmailNotifier) invite(group []domain.WaitingUser, start time.Time, venue domain.Venue) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)
	cal.SetProductId("-//NightSpot//Group Matcher//EN")

	uid := fmt.Sprintf("%s-%d@nightspot", group[0].ID, start.Unix())
	ev := cal.AddEvent(uid)
	ev.SetDtStampTime(n.now())
	ev.SetStartAt(start)
	ev.SetEndAt(start.Add(n.duration))
	ev.SetSummary("NightSpot meetup at " + venue.Name)
	ev.SetLocation(location(venue))
	ev.SetDescription(venue.Description)
	ev.SetOrganizer("mailto:" + n.cfg.From)
	for _, u := range group {
		ev.AddAttendee(u.Email,
			ics.CalendarUserTypeIndividual,
			ics.ParticipationStatusNeedsAction,
			ics.ParticipationRoleReqParticipant,
			ics.WithRSVP(true),
		)
	}
	return cal.Serialize()
}

func plainBody(group []domain.WaitingUser, meetingTime string, venue domain.Venue) string {
	var b strings.Builder
	b.WriteString("Hi there,\r\n\r\n")
	fmt.Fprintf(&b, "You have been matched with %d people for %s.\r\n\r\n", len(group)-1, meetingTime)
	fmt.Fprintf(&b, "Where: %s\r\n", location(venue))
	if venue.Description != "" {
		fmt.Fprintf(&b, "       %s\r\n", venue.Description)
	}
	b.WriteString("\r\nYour group:\r\n")
	for _, u := range group {
		fmt.Fprintf(&b, "  - %s\r\n", u.Name)
	}
	b.WriteString("\r\nHave a great night!\r\n")
	return b.String()
}

func location(v domain.Venue) string {
	if v.Address == "" {
		return v.Name
	}
	return v.Name + ", " + v.Address
}
