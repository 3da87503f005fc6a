package domain

import (
	"errors"
	"testing"
)

func TestParseRefMonth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    RefMonth
		wantErr bool
	}{
		{in: "6/2024", want: RefMonth{Month: 6, Year: 2024}},
		{in: "06/2024", want: RefMonth{Month: 6, Year: 2024}},
		{in: " 12/2023 ", want: RefMonth{Month: 12, Year: 2023}},
		{in: "13/2024", wantErr: true},
		{in: "0/2024", wantErr: true},
		{in: "6-2024", wantErr: true},
		{in: "6/24", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseRefMonth(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidMonth) {
				t.Fatalf("ParseRefMonth(%q) err=%v, want ErrInvalidMonth", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseRefMonth(%q) err=%v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseRefMonth(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRefMonth_StringAndOrdering(t *testing.T) {
	t.Parallel()

	m := RefMonth{Month: 6, Year: 2024}
	if m.String() != "6/2024" {
		t.Fatalf("String()=%q, want 6/2024", m.String())
	}
	if !(RefMonth{Month: 12, Year: 2023}).Before(m) {
		t.Fatalf("12/2023 should be before 6/2024")
	}
	if got := (RefMonth{Month: 12, Year: 2023}).Next(); got != (RefMonth{Month: 1, Year: 2024}) {
		t.Fatalf("Next()=%v, want 1/2024", got)
	}
}

func TestRefMonth_YearToDate(t *testing.T) {
	t.Parallel()

	got := RefMonth{Month: 3, Year: 2024}.YearToDate()
	want := []string{"1/2024", "2/2024", "3/2024"}
	if len(got) != len(want) {
		t.Fatalf("len=%d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Fatalf("got[%d]=%s, want %s", i, got[i], want[i])
		}
	}
}
