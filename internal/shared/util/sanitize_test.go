package util

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "MAT-submission-summary-2026-01-02.txt", want: "MAT-submission-summary-2026-01-02.txt"},
		{in: " a/b\\c.txt ", want: "a_b_c.txt"},
		{in: "quo\"te\r\n.txt", want: "quo_te.txt"},
		{in: "../etc/passwd", wantErr: true},
		{in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SanitizeFileName(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
