package domain

import "testing"

func TestFailure_String(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "single line", message: "expected 2, got 3", want: "t(A): expected 2, got 3"},
		{name: "unix newlines", message: "want:\n  1\ngot:\n  2", want: `t(A): want:\n  1\ngot:\n  2`},
		{name: "windows newlines", message: "a\r\nb", want: `t(A): a\nb`},
		{name: "carriage return", message: "a\rb", want: `t(A): a\nb`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Failure{Class: "A", Method: "t", Message: tt.message}
			if got := f.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
