package game

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  <p>  ", "<p>"},
		{"color: red;", "color:red"},
		{"color : red ;;", "color:red"},
		{"let name = 'John';", "letname='John'"},
		{"display:\n\tflex;", "display:flex"},
		{";;;", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", "  <p> ", "color: red;", "font-weight : bold ;", "let arr = [1, 2]; arr.push(3);"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		submitted string
		expected  string
		want      bool
	}{
		{"<p>", "<p>", true},
		{" <p> ", "<p>", true},
		{"color: red;", "color:red", true},
		{"color:red", "color: red;", true},
		{"blue", "background-color", false},
		{"<P>", "<p>", false},
		{"Color: red;", "color: red;", false},
		{"font-weight:bold", "font-weight: bold;", true},
	}

	for _, tt := range tests {
		if got := Grade(tt.submitted, tt.expected); got != tt.want {
			t.Errorf("Grade(%q, %q) = %v, want %v", tt.submitted, tt.expected, got, tt.want)
		}
	}
}
