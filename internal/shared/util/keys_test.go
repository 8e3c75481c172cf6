package util

import (
	"strings"
	"testing"
)

func TestNewObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		fileName string
		wantPre  string
		wantExt  string
	}{
		{name: "pdf", prefix: "uploads", fileName: "invoice.pdf", wantPre: "uploads/", wantExt: ".pdf"},
		{name: "upper ext", prefix: "/uploads/", fileName: "Scan.JPG", wantPre: "uploads/", wantExt: ".jpg"},
		{name: "no prefix", prefix: "", fileName: "photo.png", wantPre: "", wantExt: ".png"},
		{name: "no ext", prefix: "avatars", fileName: "README", wantPre: "avatars/", wantExt: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := NewObjectKey(tt.prefix, tt.fileName)
			if !strings.HasPrefix(got, tt.wantPre) {
				t.Fatalf("NewObjectKey(%q, %q) = %q, want prefix %q", tt.prefix, tt.fileName, got, tt.wantPre)
			}
			if !strings.HasSuffix(got, tt.wantExt) {
				t.Fatalf("NewObjectKey(%q, %q) = %q, want suffix %q", tt.prefix, tt.fileName, got, tt.wantExt)
			}
			if strings.Contains(got, "invoice") || strings.Contains(got, "Scan") {
				t.Fatalf("expected original base name to be dropped, got %q", got)
			}
		})
	}

	if NewObjectKey("uploads", "a.pdf") == NewObjectKey("uploads", "a.pdf") {
		t.Fatalf("expected distinct keys for repeated calls")
	}
}
