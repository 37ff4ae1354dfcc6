// Package terraria answers questions about the Terraria server by composing
// the updates log and the autonotify subscriber set.
package terraria

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aracnido/haibot/autonot"
	"github.com/aracnido/haibot/translate"
	"github.com/aracnido/haibot/updates"
)

// timeLayout is the timestamp format used in log lines.
const timeLayout = "02/01/06 15:04"

// Service reads and writes the server's status history. It caches the most
// recent status change so status and ip queries need no storage read.
type Service struct {
	log  *updates.Log
	subs *autonot.List
	tz   *time.Location

	mu   sync.Mutex
	last updates.Event
}

// New creates a service over the updates log and subscriber set. The cached
// status is primed from the log; if that read fails, the service starts from
// the unknown/offline default and the error is returned alongside the usable
// service for the caller to report.
func New(ctx context.Context, log *updates.Log, subs *autonot.List, tz *time.Location) (*Service, error) {
	if tz == nil {
		tz = time.UTC
	}
	s := &Service{log: log, subs: subs, tz: tz}
	ev, err := log.Latest(ctx, updates.StatusOnly)
	if ev != nil {
		s.last = *ev
	}
	return s, err
}

// ChangeStatus records a server status transition and returns its display
// text. Notifying subscribers is the caller's business.
func (s *Service) ChangeStatus(ctx context.Context, loc *translate.Locale, at time.Time, online bool, user, ip string) (string, error) {
	ev := updates.Event{
		User:   user,
		Time:   at.UTC(),
		Kind:   updates.StatusChange,
		Online: online,
		IP:     ip,
	}
	if err := s.log.Append(ctx, ev); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.last = ev
	s.mu.Unlock()
	return statusText(loc, ev), nil
}

// AddMilestone records a milestone annotation and returns its display text.
// Milestones do not touch the cached status.
func (s *Service) AddMilestone(ctx context.Context, loc *translate.Locale, at time.Time, user, text string) (string, error) {
	ev := updates.Event{
		User: user,
		Time: at.UTC(),
		Kind: updates.Milestone,
		Text: text,
	}
	if err := s.log.Append(ctx, ev); err != nil {
		return "", err
	}
	return loc.Textf("(%s) Milestone: %s", ev.User, ev.Text), nil
}

// Status formats the most recent known status change.
func (s *Service) Status(loc *translate.Locale) string {
	s.mu.Lock()
	ev := s.last
	s.mu.Unlock()
	return statusText(loc, ev)
}

// Last returns the most recent known status change event.
func (s *Service) Last() updates.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// IP returns the last known server address, or a sentinel when none is known.
func (s *Service) IP(loc *translate.Locale) string {
	s.mu.Lock()
	ip := s.last.IP
	s.mu.Unlock()
	if ip == "" {
		return loc.Text("There is no IP")
	}
	return ip
}

// Log formats up to amount recent log entries, newest first, with timestamps
// in the service's display timezone. Read failures and an empty log degrade
// to a sentinel text rather than an error.
func (s *Service) Log(ctx context.Context, loc *translate.Locale, amount int, onlyMilestones bool) string {
	f := updates.All
	if onlyMilestones {
		f = updates.MilestoneOnly
	}
	evs, err := s.log.Recent(ctx, amount, f)
	if err != nil || len(evs) == 0 {
		return loc.Text("There is no Log History")
	}
	var b strings.Builder
	for _, ev := range evs {
		date := ev.Time.In(s.tz).Format(timeLayout)
		switch {
		case ev.Kind == updates.Milestone:
			b.WriteString(loc.Textf("[%s] (%s) Milestone: %s", date, ev.User, ev.Text))
		case ev.Online:
			b.WriteString(loc.Textf("[%s] (%s) Terraria Server is On (IP:%s)", date, ev.User, ev.IP))
		default:
			b.WriteString(loc.Textf("[%s] (%s) Terraria Server is Off", date, ev.User))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Recent returns up to n recent log events matching the filter, newest first.
func (s *Service) Recent(ctx context.Context, n int, f updates.Filter) ([]updates.Event, error) {
	return s.log.Recent(ctx, n, f)
}

// AutonotStatus reports whether a chat receives automatic notifications.
func (s *Service) AutonotStatus(ctx context.Context, id int64) (bool, error) {
	return s.subs.Subscribed(ctx, id)
}

// SetAutonotOn subscribes a chat and reports the resulting membership, true.
func (s *Service) SetAutonotOn(ctx context.Context, id int64) (bool, error) {
	return true, s.subs.Subscribe(ctx, id)
}

// SetAutonotOff unsubscribes a chat and reports the resulting membership, false.
func (s *Service) SetAutonotOff(ctx context.Context, id int64) (bool, error) {
	return false, s.subs.Unsubscribe(ctx, id)
}

// ToggleAutonot flips a chat's subscription and reports the result.
func (s *Service) ToggleAutonot(ctx context.Context, id int64) (bool, error) {
	return s.subs.Toggle(ctx, id)
}

// Subscribers returns every chat to notify on status changes and milestones.
func (s *Service) Subscribers(ctx context.Context) ([]int64, error) {
	return s.subs.All(ctx)
}

func statusText(loc *translate.Locale, ev updates.Event) string {
	if ev.Online {
		return loc.Textf("(%s) Terraria server is On (IP:%s)", ev.User, ev.IP)
	}
	return loc.Textf("(%s) Terraria server is Off", ev.User)
}
