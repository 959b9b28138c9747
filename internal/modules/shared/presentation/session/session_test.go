package session

import (
	"context"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "正常系: そのまま使う", raw: "alice", want: "alice", wantOK: true},
		{name: "正常系: 前後の空白を除く", raw: "  bob ", want: "bob", wantOK: true},
		{name: "境界値: 空ならデフォルト", raw: "", want: DefaultID, wantOK: true},
		{name: "境界値: 空白のみ", raw: "   ", want: DefaultID, wantOK: true},
		{name: "境界値: 上限ちょうど", raw: strings.Repeat("a", MaxIDLength), want: strings.Repeat("a", MaxIDLength), wantOK: true},
		{name: "異常系: 上限超過", raw: strings.Repeat("a", MaxIDLength+1), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("Normalize() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got != DefaultID {
		t.Errorf("FromContext(empty) = %q, want %q", got, DefaultID)
	}

	ctx := WithID(context.Background(), "carol")
	if got := FromContext(ctx); got != "carol" {
		t.Errorf("FromContext() = %q, want carol", got)
	}
}
