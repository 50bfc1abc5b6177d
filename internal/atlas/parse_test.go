package atlas

import (
	"errors"
	"testing"

	"spinefetch/internal/services"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Descriptor
	}{
		{
			name: "spine 3.8 header",
			text: "\nchar_001_test.png\nsize: 100,150\nformat: RGBA8888\n",
			want: Descriptor{Basename: "char_001_test", Width: 100, Height: 150},
		},
		{
			name: "crlf line endings",
			text: "header\r\nchar_002_amiya.png\r\nsize:2048,1024\r\n",
			want: Descriptor{Basename: "char_002_amiya", Width: 2048, Height: 1024},
		},
		{
			name: "uppercase prefix before numeric id",
			text: "\nBuild_Char_285_Medic2_Summer#7.png\nsize:512,512",
			want: Descriptor{Basename: "build_char_285_Medic2_Summer_7", Width: 512, Height: 512},
		},
		{
			name: "no numeric part lowers everything",
			text: "\nEnemy_Boss_Final.png\nsize:64,32",
			want: Descriptor{Basename: "enemy_boss_final", Width: 64, Height: 32},
		},
		{
			name: "backslash becomes subdirectory",
			text: "\nSkins\\Char_1012_Skadi2.png\nsize:10,20",
			want: Descriptor{Basename: "skins/char_1012_Skadi2", Width: 10, Height: 20},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.text)
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Parse = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"two lines", "\nchar_001_test.png"},
		{"wrong extension", "\nchar_001_test.jpg\nsize:1,1"},
		{"missing size prefix", "\nchar_001_test.png\nformat: RGBA8888"},
		{"non numeric size", "\nchar_001_test.png\nsize:wide,tall"},
		{"single dimension", "\nchar_001_test.png\nsize:100"},
		{"zero dimension", "\nchar_001_test.png\nsize:0,10"},
		{"negative dimension", "\nchar_001_test.png\nsize:10,-4"},
		{"empty basename", "\n.png\nsize:10,10"},
		{"escapes directory", "\n..\\..\\evil.png\nsize:10,10"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation marker, got %v", err)
			}
			if services.FailureKind(err) != services.KindContent {
				t.Fatalf("expected content failure kind, got %q", services.FailureKind(err))
			}
		})
	}
}

func TestCanonicalName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "char_001_test", want: "char_001_test"},
		{in: "CHAR_002_Amiya_Epoque", want: "char_002_Amiya_Epoque"},
		{in: "Token_10000_ABC", want: "token_10000_ABC"},
		{in: "a#b", want: "a_b"},
		{in: "UPPER", want: "upper"},
		{in: "Mixed_１２_Wide", want: "mixed_１２_Wide"},
	}
	for _, tc := range cases {
		if got := CanonicalName(tc.in); got != tc.want {
			t.Errorf("CanonicalName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
