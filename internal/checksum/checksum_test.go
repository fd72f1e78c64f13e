package checksum

import "testing"

func TestSum(t *testing.T) {
	// SHA-256 of the empty input.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different inputs should differ")
	}
}

func TestETagRoundTrip(t *testing.T) {
	sum := Sum([]byte("habit"))
	for _, header := range []string{ETag(sum), "W/" + ETag(sum), " " + sum + " "} {
		if got := ParseETag(header); got != sum {
			t.Errorf("ParseETag(%q) = %q", header, got)
		}
	}
	if got := ParseETag("*"); got != "" {
		t.Errorf("ParseETag(*) = %q, want empty", got)
	}
}
