package params

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKeys []string
		want     map[string]string
	}{
		{
			name:     "two pairs",
			raw:      "num1=3&num2=4",
			wantKeys: []string{"num1", "num2"},
			want:     map[string]string{"num1": "3", "num2": "4"},
		},
		{
			name:     "percent and plus decoding",
			raw:      "q=hello+world%2Fme&bob=5",
			wantKeys: []string{"q", "bob"},
			want:     map[string]string{"q": "hello world/me", "bob": "5"},
		},
		{
			name:     "encoded key",
			raw:      "na%6De=x",
			wantKeys: []string{"name"},
			want:     map[string]string{"name": "x"},
		},
		{
			name:     "value keeps later equals signs",
			raw:      "query=users/a=b/repos",
			wantKeys: []string{"query"},
			want:     map[string]string{"query": "users/a=b/repos"},
		},
		{
			name:     "empty value",
			raw:      "name=&msg=hi",
			wantKeys: []string{"name", "msg"},
			want:     map[string]string{"name": "", "msg": "hi"},
		},
		{
			name:     "utf-8",
			raw:      "msg=caf%C3%A9",
			wantKeys: []string{"msg"},
			want:     map[string]string{"msg": "café"},
		},
		{
			name:     "trailing ampersand",
			raw:      "a=1&",
			wantKeys: []string{"a"},
			want:     map[string]string{"a": "1"},
		},
		{
			name:     "empty input",
			raw:      "",
			wantKeys: []string{},
			want:     map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode(tt.raw)
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", tt.raw, err)
			}
			if got := p.Keys(); !reflect.DeepEqual(got, tt.wantKeys) {
				t.Errorf("Keys() = %v, want %v", got, tt.wantKeys)
			}
			for k, v := range tt.want {
				got, ok := p.Get(k)
				if !ok || got != v {
					t.Errorf("Get(%q) = %q, %v; want %q, true", k, got, ok, v)
				}
			}
		})
	}
}

func TestDecode_LastWriteWins(t *testing.T) {
	p, err := Decode("a=1&b=2&a=3")
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if got, _ := p.Get("a"); got != "3" {
		t.Errorf("Get(a) = %q, want %q", got, "3")
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
	if got := p.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"pair without equals", "num1=3&num2", ErrNoSeparator},
		{"empty interior pair", "a=1&&b=2", ErrNoSeparator},
		{"truncated escape in value", "a=%4", ErrBadEscape},
		{"invalid hex in key", "%zz=1", ErrBadEscape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode(tt.raw)
			if err == nil {
				t.Fatalf("Decode(%q) = %+v, want error", tt.raw, p)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode(%q) error = %v, want %v", tt.raw, err, tt.want)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Errorf("error %T is not a *DecodeError", err)
			}
		})
	}
}

func TestGet_Missing(t *testing.T) {
	p, _ := Decode("a=1")
	if _, ok := p.Get("b"); ok {
		t.Error("Get(b) ok = true, want false")
	}
}
