package nlu

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"350", 35000, true},
		{"$5000", 500000, true},
		{"$ 5.000", 500000, true},
		{"5,000", 500000, true},
		{"5,000.50", 500050, true},
		{"1.500,75", 150075, true},
		{"3.50", 350, true},
		{"0.5", 50, true},
		{"1,234,567", 123456700, true},
		{"", 0, false},
		{"$", 0, false},
		{"abc", 0, false},
		{"12.3456", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseAmount(c.in)
		if ok != c.ok || got != c.cents {
			t.Errorf("ParseAmount(%q) = (%d, %v), want (%d, %v)", c.in, got, ok, c.cents, c.ok)
		}
	}
}

func TestExtract(t *testing.T) {
	cases := []struct {
		in   string
		want map[string]string
	}{
		{"transferir $5.000", map[string]string{EntityAmount: "500000"}},
		{"registrar gasto 1.500,75", map[string]string{EntityAmount: "150075"}},
		{"resumen del mes", map[string]string{EntityPeriod: PeriodMonth, EntityPanel: "resumen"}},
		{"ventas de hoy", map[string]string{EntityPeriod: PeriodToday, EntityPanel: "ventas"}},
		{"vender 20 unidades", map[string]string{EntityQuantity: "20"}},
		{"registrar gasto 500", map[string]string{EntityAmount: "50000"}},
		{"transferir 1200", map[string]string{EntityAmount: "120000"}},
		{"ir a bancos", map[string]string{EntityPanel: "bancos"}},
		{"", map[string]string{}},
		{"texto sin sentido qwerty", map[string]string{}},
	}
	for _, c := range cases {
		got := Extract(c.in)
		if len(got) != len(c.want) {
			t.Errorf("Extract(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for k, v := range c.want {
			if got[k] != v {
				t.Errorf("Extract(%q)[%s] = %q, want %q", c.in, k, got[k], v)
			}
		}
	}
}

func TestExtractNeverFailsOnGarbage(t *testing.T) {
	inputs := []string{"$$$$", "., ., .,", "999999999999999999999999", "  \t\n  "}
	for _, in := range inputs {
		got := Extract(in)
		if got == nil {
			t.Errorf("Extract(%q) returned nil map", in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{500000, "$5,000"},
		{150075, "$1,500.75"},
		{50, "$0.50"},
		{0, "$0"},
		{-123456, "-$1,234.56"},
	}
	for _, c := range cases {
		if got := FormatAmount(c.cents); got != c.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", c.cents, got, c.want)
		}
	}
}
