package logic

import (
	"reflect"
	"testing"
)

func TestMaxPage(t *testing.T) {
	tests := []struct {
		name  string
		count int
		size  int
		known bool
		want  int
	}{
		{"exact multiple", 12, 6, true, 2},
		{"remainder", 13, 6, true, 3},
		{"single partial page", 1, 6, true, 1},
		{"empty list", 0, 6, true, 1},
		{"unknown count", 0, 6, false, FallbackMaxPage},
		{"unknown count ignores value", 100, 6, false, FallbackMaxPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxPage(tt.count, tt.size, tt.known); got != tt.want {
				t.Errorf("MaxPage(%d, %d, %v) = %d, want %d", tt.count, tt.size, tt.known, got, tt.want)
			}
		})
	}
}

func TestPager_BoundsAreNoOps(t *testing.T) {
	p := NewPager(1, 3)
	if p.Prev() {
		t.Error("Prev() moved below page 1")
	}
	if p.Current != 1 {
		t.Errorf("Current = %d after Prev at 1", p.Current)
	}

	p.Next()
	p.Next()
	if p.Current != 3 {
		t.Fatalf("Current = %d, want 3", p.Current)
	}
	if p.Next() {
		t.Error("Next() moved past max")
	}
	if p.Current != 3 {
		t.Errorf("Current = %d after Next at max", p.Current)
	}
}

func TestPager_Clamps(t *testing.T) {
	if p := NewPager(9, 3); p.Current != 3 {
		t.Errorf("NewPager(9, 3).Current = %d", p.Current)
	}
	if p := NewPager(0, 0); p.Current != 1 || p.Max != 1 {
		t.Errorf("NewPager(0, 0) = %+v", p)
	}
	p := NewPager(2, 3)
	if p.Contains(4) || p.Contains(0) || !p.Contains(3) {
		t.Error("Contains() wrong at the edges")
	}
}

func TestPager_Window(t *testing.T) {
	tests := []struct {
		name    string
		current int
		max     int
		want    PageWindow
	}{
		{
			name: "first page of many", current: 1, max: 10,
			want: PageWindow{Pages: []int{1, 2, 3}, TrailingEllipsis: true, PrevDisabled: true},
		},
		{
			name: "middle", current: 5, max: 10,
			want: PageWindow{Pages: []int{3, 4, 5, 6, 7}, LeadingEllipsis: true, TrailingEllipsis: true},
		},
		{
			name: "last page", current: 10, max: 10,
			want: PageWindow{Pages: []int{8, 9, 10}, LeadingEllipsis: true, NextDisabled: true},
		},
		{
			name: "single page", current: 1, max: 1,
			want: PageWindow{Pages: []int{1}, PrevDisabled: true, NextDisabled: true},
		},
		{
			name: "window touches both ends", current: 3, max: 5,
			want: PageWindow{Pages: []int{1, 2, 3, 4, 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPager(tt.current, tt.max).Window()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Window() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
