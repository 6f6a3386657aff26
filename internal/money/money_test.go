package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{in: "100", want: 10000},
		{in: "12.5", want: 1250},
		{in: " 0.005 ", want: 1},
		{in: "0.004", want: 0},
		{in: "-3.333", want: -333},
		{in: "abc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Parse(%q) error = %v", tt.in, err)
		}
		if err == nil && got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMulChecked(t *testing.T) {
	tests := []struct {
		a      Amount
		q      int64
		want   Amount
		wantOK bool
	}{
		{a: 30000, q: 4, want: 120000, wantOK: true},
		{a: 0, q: math.MaxInt64, want: 0, wantOK: true},
		{a: Max, q: 1, want: Max, wantOK: true},
		{a: Max, q: 2},
		{a: 30000, q: 1 << 62},
		{a: 1000, q: 1844674407370955161},
		{a: -1, q: 1},
		{a: 100, q: -1},
		{a: Max + 1, q: 0},
	}
	for _, tt := range tests {
		got, ok := tt.a.MulChecked(tt.q)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("%d.MulChecked(%d) = %d, %v; want %d, %v", tt.a, tt.q, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDivRound(t *testing.T) {
	tests := []struct {
		a    Amount
		n    int64
		want Amount
	}{
		{a: 10000, n: 10, want: 1000},
		{a: 10000, n: 3, want: 3333},
		{a: 20000, n: 3, want: 6667},
		{a: 5, n: 2, want: 3},
		{a: -5, n: 2, want: -3},
		{a: 777, n: 1, want: 777},
		{a: 777, n: 0, want: 777},
	}
	for _, tt := range tests {
		if got := tt.a.DivRound(tt.n); got != tt.want {
			t.Errorf("%d.DivRound(%d) = %d, want %d", tt.a, tt.n, got, tt.want)
		}
	}
}

func TestPercentAndClamp(t *testing.T) {
	if got := Amount(10000).Percent(decimal.NewFromInt(18)); got != 1800 {
		t.Errorf("18%% of 100.00 = %s", got)
	}
	if got := Amount(-5).NonNegative(); got != 0 {
		t.Errorf("NonNegative = %s", got)
	}
	if got := Amount(500).Clamp(0, 150); got != 150 {
		t.Errorf("Clamp = %s", got)
	}
	if got := Sum(100, 250, -50); got != 300 {
		t.Errorf("Sum = %s", got)
	}
}

func TestJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Price Amount `json:"price"`
	}{Price: 15050})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"price":150.50}` {
		t.Errorf("marshal = %s", b)
	}

	var in struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.345, "b": "7"}`), &in); err != nil {
		t.Fatal(err)
	}
	if in.A != 1235 || in.B != 700 {
		t.Errorf("unmarshal = %+v", in)
	}
}

func TestScan(t *testing.T) {
	var a Amount
	for _, src := range []any{int64(1234), "1234", []byte("1234")} {
		if err := a.Scan(src); err != nil || a != 1234 {
			t.Errorf("Scan(%v) = %d, %v", src, a, err)
		}
	}
	if err := a.Scan(true); err == nil {
		t.Error("expected error scanning bool")
	}
}
