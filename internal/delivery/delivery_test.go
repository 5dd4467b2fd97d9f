package delivery

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestSegment(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a\nb\n\nc  \n", []string{"a", "b", "c"}},
		{"   \n  ", []string{}},
		{"", []string{}},
		{"just one line", []string{"just one line"}},
		{"  嗨宝贝\r\n想你了～ ", []string{"嗨宝贝", "想你了～"}},
	}
	for _, tc := range cases {
		got := Segment(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Segment(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

type emitted struct {
	index int
	seg   string
	last  bool
}

func TestDeliverPacing(t *testing.T) {
	s := NewScheduler(DefaultDelay)
	var sleeps []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	var got []emitted
	err := s.Deliver(context.Background(), []string{"a", "b", "c"}, func(i int, seg string, last bool) error {
		got = append(got, emitted{i, seg, last})
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []emitted{{0, "a", false}, {1, "b", false}, {2, "c", true}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if len(sleeps) != 2 || sleeps[0] != DefaultDelay || sleeps[1] != DefaultDelay {
		t.Fatalf("expected two pauses of %v, got %v", DefaultDelay, sleeps)
	}
}

func TestDeliverSingleSegmentHasNoPause(t *testing.T) {
	s := NewScheduler(time.Hour)
	count := 0
	err := s.Deliver(context.Background(), []string{"only"}, func(_ int, _ string, last bool) error {
		count++
		if !last {
			t.Fatalf("expected single segment to be last")
		}
		return nil
	})
	if err != nil || count != 1 {
		t.Fatalf("expected one emit without error, got %d (%v)", count, err)
	}
}

func TestDeliverCancelled(t *testing.T) {
	s := NewScheduler(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	var got []string
	err := s.Deliver(ctx, []string{"a", "b"}, func(_ int, seg string, _ bool) error {
		got = append(got, seg)
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected delivery to stop after first segment, got %v", got)
	}
}

func TestDeliverStopsOnEmitError(t *testing.T) {
	s := NewScheduler(0)
	boom := errors.New("boom")
	calls := 0
	err := s.Deliver(context.Background(), []string{"a", "b"}, func(int, string, bool) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected boom after one call, got %v (%d)", err, calls)
	}
}
