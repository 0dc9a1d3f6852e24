package checksum

import (
	"strings"
	"testing"
)

func TestSum(t *testing.T) {
	// SHA3-512 of the empty string.
	const empty = "a69f73cca23a9ac5c8b567dc185a756e97c982164fe25859e0d1dcc1475c80a6" +
		"15b2123af1f5f94c11e3e9402c3ac558f500199d95b6d3e301758586281dcd26"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %q, want %q", got, empty)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different inputs produced the same digest")
	}
}

func TestImageName(t *testing.T) {
	data := []byte("not really a jpeg")
	name := ImageName(data)
	if !strings.HasPrefix(name, Sum(data)+"-") {
		t.Errorf("name = %q, want digest prefix", name)
	}
	if !strings.HasSuffix(name, "-17.jpeg") {
		t.Errorf("name = %q, want size suffix -17.jpeg", name)
	}
}
