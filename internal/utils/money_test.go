package utils

import (
	"errors"
	"testing"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "15.50", want: 1550},
		{in: "15.5", want: 1550},
		{in: "15", want: 1500},
		{in: "0", want: 0},
		{in: ".99", want: 99},
		{in: " 12.00 ", want: 1200},
		{in: "", wantErr: true},
		{in: "-1.00", wantErr: true},
		{in: "1.999", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1.x5", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePrice(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrBadPrice) {
					t.Fatalf("ParsePrice(%q) err = %v, want ErrBadPrice", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParsePrice(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{2550, "25.50"},
		{99, "0.99"},
		{0, "0.00"},
		{100, "1.00"},
		{-1550, "-15.50"},
	}
	for _, tc := range cases {
		if got := FormatCents(tc.in); got != tc.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
