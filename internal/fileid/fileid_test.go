package fileid

import (
	"strings"
	"testing"
)

func TestScanID(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		same bool
	}{
		{"identical", "/data/p.fa", "/data/p.fa", true},
		{"trailing slash", "/data/p", "/data/p/", true},
		{"dot segment", "/data/./p.fa", "/data/p.fa", true},
		{"parent segment", "/data/x/../p.fa", "/data/p.fa", true},
		{"different file", "/data/p.fa", "/data/q.fa", false},
		{"relative vs absolute", "data/p.fa", "/data/p.fa", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, b := ScanID(tc.a), ScanID(tc.b)
			if (a == b) != tc.same {
				t.Errorf("ScanID(%q)=%q, ScanID(%q)=%q, same=%v", tc.a, a, tc.b, b, tc.same)
			}
		})
	}
}

func TestScanID_Format(t *testing.T) {
	id := ScanID("/data/p.fa")
	if !strings.HasPrefix(id, Prefix) {
		t.Errorf("missing prefix: %q", id)
	}
	if len(id) != len(Prefix)+32 {
		t.Errorf("unexpected length %d: %q", len(id), id)
	}
	if !IsFileID(id) {
		t.Error("IsFileID should accept ScanID output")
	}
	if IsFileID("3f2a9c3e-uuid") {
		t.Error("IsFileID should reject other ids")
	}
}
