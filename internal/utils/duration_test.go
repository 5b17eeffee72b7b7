package utils

import "testing"

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{-5, "0秒"},
		{0, "0秒"},
		{30, "30秒"},
		{59, "59秒"},
		{60, "1分鐘"},
		{125, "2分鐘"},
		{3599, "59分鐘"},
		{3600, "1小時"},
		{86399, "23小時"},
		{86400, "1天"},
		{90000, "1天"},
		{864000, "10天"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Fatalf("FormatDuration(%d) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
