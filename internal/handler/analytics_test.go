package handler

import (
	"testing"
	"time"
)

func TestParseWindow_Empty(t *testing.T) {
	window, err := parseWindow("", "")
	if err != nil || window != nil {
		t.Fatalf("window=%v err=%v want nil/nil", window, err)
	}
}

func TestParseWindow_Valid(t *testing.T) {
	window, err := parseWindow("2024-06-01", "2024-06-30")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !window.From.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from=%v", window.From)
	}
	if !window.To.Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("to=%v", window.To)
	}
}

func TestParseWindow_Rejections(t *testing.T) {
	cases := [][2]string{
		{"2024-06-01", ""},           // one-sided
		{"", "2024-06-30"},           // one-sided
		{"June 1", "2024-06-30"},     // bad from
		{"2024-06-01", "yesterday"},  // bad to
		{"2024-06-30", "2024-06-01"}, // reversed
		{"2023-01-01", "2024-06-01"}, // too wide
	}
	for _, tc := range cases {
		if _, err := parseWindow(tc[0], tc[1]); err == nil {
			t.Fatalf("parseWindow(%q, %q) accepted", tc[0], tc[1])
		}
	}
}
