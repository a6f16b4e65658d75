package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello", 5) != "hello" {
		t.Error("exact length unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("康德引入了定言令式", 4); got != "康德引入..." {
		t.Errorf("multibyte text should be cut on rune boundaries, got %q", got)
	}
}
