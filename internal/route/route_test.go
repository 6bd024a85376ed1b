package route

import (
	"errors"
	"slices"
	"testing"
)

func TestBuildParseRoundTrip(t *testing.T) {
	testCases := []struct {
		name     string
		segments []string
	}{
		{"Single", []string{"task_ready"}},
		{"Pair", []string{"task_ready", "default"}},
		{"Triple", []string{"a", "b", "c"}},
		{"EmptySegments", []string{"", ""}},
		{"Unicode", []string{"任务", "命名空间"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Build(tc.segments...)
			if err != nil {
				t.Fatalf("Build(%q): %v", tc.segments, err)
			}
			got, ok := Parse(s, len(tc.segments))
			if !ok {
				t.Fatalf("Parse(%q, %d) did not match", s, len(tc.segments))
			}
			if !slices.Equal(got, tc.segments) {
				t.Errorf("round trip: got %q, want %q", got, tc.segments)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	s, err := Build("task_ready", "billing")
	if err != nil {
		t.Fatal(err)
	}
	if s != "task_ready/billing" {
		t.Errorf("got %q", s)
	}

	if _, err := Build(); !errors.Is(err, ErrEmptyRoute) {
		t.Errorf("expected ErrEmptyRoute, got %v", err)
	}

	_, err = Build("task_ready", "a/b")
	var segErr *SegmentError
	if !errors.As(err, &segErr) {
		t.Fatalf("expected SegmentError, got %v", err)
	}
	if segErr.Index != 1 || segErr.Segment != "a/b" {
		t.Errorf("unexpected segment error: %+v", segErr)
	}
}

func TestMustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for separator in segment")
		}
	}()
	MustBuild("x/y")
}

func TestParseArityMismatch(t *testing.T) {
	testCases := []struct {
		input string
		n     int
	}{
		{"task_ready", 2},
		{"task_ready/default/extra", 2},
		{"a/b", 3},
		{"a/b", 1},
		{"", 2},
		{"a", 0},
	}

	for _, tc := range testCases {
		if got, ok := Parse(tc.input, tc.n); ok {
			t.Errorf("Parse(%q, %d) = %q, expected no match", tc.input, tc.n, got)
		}
	}
}

func TestNamespaceOf(t *testing.T) {
	testCases := []struct {
		channel string
		want    string
		ok      bool
	}{
		{"task_ready/default", "default", true},
		{"task_ready/", "", true},
		{"task_done/default", "", false},
		{"task_ready", "", false},
		{"task_ready/a/b", "", false},
	}

	for _, tc := range testCases {
		got, ok := NamespaceOf(tc.channel)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NamespaceOf(%q) = (%q, %v), want (%q, %v)", tc.channel, got, ok, tc.want, tc.ok)
		}
	}

	ch, err := ForNamespace("billing")
	if err != nil || ch != "task_ready/billing" {
		t.Errorf("ForNamespace: %q, %v", ch, err)
	}
}
