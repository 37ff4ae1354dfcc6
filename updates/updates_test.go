package updates_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/aracnido/haibot/updates"
)

var dbCount atomic.Int64

func testDB(ctx context.Context) *sqlitex.Pool {
	k := dbCount.Add(1)
	pool, err := sqlitex.NewPool(fmt.Sprintf("file:test-updates-%d.db?mode=memory&cache=shared", k), sqlitex.PoolOptions{Flags: sqlite.OpenReadWrite | sqlite.OpenCreate | sqlite.OpenMemory | sqlite.OpenSharedCache | sqlite.OpenURI})
	if err != nil {
		panic(err)
	}
	if err := updates.Init(ctx, pool); err != nil {
		panic(err)
	}
	return pool
}

func status(user string, sec int64, online bool, ip string) updates.Event {
	return updates.Event{User: user, Time: time.Unix(sec, 0).UTC(), Kind: updates.StatusChange, Online: online, IP: ip}
}

func milestone(user string, sec int64, text string) updates.Event {
	return updates.Event{User: user, Time: time.Unix(sec, 0).UTC(), Kind: updates.Milestone, Text: text}
}

func TestLatestEmpty(t *testing.T) {
	ctx := context.Background()
	l, err := updates.Open(ctx, testDB(ctx))
	if err != nil {
		t.Fatal(err)
	}
	ev, err := l.Latest(ctx, updates.All)
	if err != nil {
		t.Errorf("latest on empty log: %v", err)
	}
	if ev != nil {
		t.Errorf("latest on empty log gave %+v, want nil", ev)
	}
}

func TestLatestFilter(t *testing.T) {
	ctx := context.Background()
	l, err := updates.Open(ctx, testDB(ctx))
	if err != nil {
		t.Fatal(err)
	}
	evs := []updates.Event{
		status("alice", 1, true, "1.2.3.4"),
		milestone("bob", 2, "beat skeletron"),
	}
	for _, ev := range evs {
		if err := l.Append(ctx, ev); err != nil {
			t.Fatalf("couldn't append %+v: %v", ev, err)
		}
	}
	got, err := l.Latest(ctx, updates.All)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&evs[1], got); diff != "" {
		t.Errorf("wrong latest event (-want +got):\n%s", diff)
	}
	got, err = l.Latest(ctx, updates.StatusOnly)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&evs[0], got); diff != "" {
		t.Errorf("wrong latest status event (-want +got):\n%s", diff)
	}
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	all := []updates.Event{
		status("alice", 1, true, "1.2.3.4"),
		milestone("alice", 2, "built a house"),
		status("bob", 3, false, ""),
		milestone("bob", 4, "beat skeletron"),
		status("alice", 5, true, "4.3.2.1"),
	}
	cases := []struct {
		name   string
		n      int
		filter updates.Filter
		want   []int // indices into all, newest first
	}{
		{name: "all", n: 10, filter: updates.All, want: []int{4, 3, 2, 1, 0}},
		{name: "limit", n: 2, filter: updates.All, want: []int{4, 3}},
		{name: "zero", n: 0, filter: updates.All, want: nil},
		{name: "negative", n: -3, filter: updates.All, want: nil},
		{name: "milestones", n: 10, filter: updates.MilestoneOnly, want: []int{3, 1}},
		{name: "statuses", n: 2, filter: updates.StatusOnly, want: []int{4, 2}},
	}
	l, err := updates.Open(ctx, testDB(ctx))
	if err != nil {
		t.Fatal(err)
	}
	for _, ev := range all {
		if err := l.Append(ctx, ev); err != nil {
			t.Fatalf("couldn't append %+v: %v", ev, err)
		}
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := l.Recent(ctx, c.n, c.filter)
			if err != nil {
				t.Fatal(err)
			}
			var want []updates.Event
			for _, k := range c.want {
				want = append(want, all[k])
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("wrong events (-want +got):\n%s", diff)
			}
		})
	}
}

// TestRecentTies verifies that equal timestamps are broken by insertion
// order, since the store only guarantees insertion-order retrieval.
func TestRecentTies(t *testing.T) {
	ctx := context.Background()
	l, err := updates.Open(ctx, testDB(ctx))
	if err != nil {
		t.Fatal(err)
	}
	evs := []updates.Event{
		milestone("alice", 7, "first"),
		milestone("alice", 7, "second"),
		milestone("alice", 7, "third"),
	}
	for _, ev := range evs {
		if err := l.Append(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	got, err := l.Recent(ctx, 3, updates.All)
	if err != nil {
		t.Fatal(err)
	}
	want := []updates.Event{evs[2], evs[1], evs[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrong tie-break order (-want +got):\n%s", diff)
	}
}
