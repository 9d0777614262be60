package winapi

import "testing"

func TestLocaleFromLangID(t *testing.T) {
	tests := []struct {
		name   string
		langID uint16
		want   string
	}{
		{"hungarian", 0x040E, "hu"},
		{"us english", 0x0409, "en"},
		{"german", 0x0407, "en"},
		{"zero", 0x0000, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocaleFromLangID(tt.langID); got != tt.want {
				t.Fatalf("LocaleFromLangID(%#04x) = %q, want %q", tt.langID, got, tt.want)
			}
		})
	}
}

func TestWindowLongIndex(t *testing.T) {
	tests := []struct {
		name  string
		index int32
		want  uintptr
	}{
		{"gwl exstyle", -20, 0xFFFFFFEC},
		{"gwl style", -16, 0xFFFFFFF0},
		{"non-negative", 0, 0},
		{"positive", 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := windowLongIndex(tt.index); got != tt.want {
				t.Fatalf("windowLongIndex(%d) = %#x, want %#x", tt.index, got, tt.want)
			}
		})
	}
}

func TestBuildSupportsCaptureExclusion(t *testing.T) {
	tests := []struct {
		name  string
		major uint32
		build uint32
		want  bool
	}{
		{"windows 10 2004", 10, 19041, true},
		{"windows 10 22H2", 10, 19045, true},
		{"windows 11", 10, 22631, true},
		{"windows 10 1909", 10, 18363, false},
		{"windows 8.1", 6, 9600, false},
		{"future major", 11, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildSupportsCaptureExclusion(tt.major, tt.build); got != tt.want {
				t.Fatalf("buildSupportsCaptureExclusion(%d, %d) = %v, want %v",
					tt.major, tt.build, got, tt.want)
			}
		})
	}
}
