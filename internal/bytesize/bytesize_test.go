package bytesize

import (
	"testing"
)

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ByteSize
		wantErr bool
	}{
		// Plain numbers
		{"plain zero", "0", 0, false},
		{"plain bytes", "1024", 1024, false},

		// Bytes suffix
		{"bytes B", "1024B", 1024, false},
		{"bytes b lowercase", "1024b", 1024, false},

		// Binary units (×1024)
		{"kibibytes Ki", "512Ki", 512 * KiB, false},
		{"kibibytes KiB", "512KiB", 512 * KiB, false},
		{"mebibytes Mi", "1Mi", MiB, false},
		{"mebibytes MiB", "100MiB", 100 * MiB, false},
		{"gibibytes Gi", "1Gi", GiB, false},
		{"tebibytes TiB", "1TiB", TiB, false},

		// Decimal units (×1000)
		{"kilobytes KB", "1KB", KB, false},
		{"megabytes MB", "100MB", 100 * MB, false},
		{"gigabytes G", "1G", GB, false},
		{"terabytes T", "1T", TB, false},

		// Case insensitivity
		{"lowercase mi", "1mi", MiB, false},
		{"uppercase MI", "1MI", MiB, false},

		// Whitespace handling
		{"leading space", "  1Mi", MiB, false},
		{"trailing space", "1Mi  ", MiB, false},
		{"space between", "1 Mi", MiB, false},

		// Fractional values
		{"float mebibytes", "1.5Mi", ByteSize(1.5 * float64(MiB)), false},
		{"float gibibytes", "0.5Gi", ByteSize(0.5 * float64(GiB)), false},

		// Error cases
		{"empty string", "", 0, true},
		{"whitespace only", "   ", 0, true},
		{"unknown unit", "1Xi", 0, true},
		{"negative number", "-1Mi", 0, true},
		{"no number", "Mi", 0, true},
		{"garbage", "abc", 0, true},
		{"double dot", "1.2.3Mi", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseByteSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseByteSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseByteSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestByteSize_UnmarshalText(t *testing.T) {
	var b ByteSize
	if err := b.UnmarshalText([]byte("2Mi")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if b != 2*MiB {
		t.Errorf("UnmarshalText(2Mi) = %d, want %d", b, 2*MiB)
	}

	if err := b.UnmarshalText([]byte("invalid")); err == nil {
		t.Error("Expected error for invalid byte size")
	}
}

func TestByteSize_String(t *testing.T) {
	tests := []struct {
		input ByteSize
		want  string
	}{
		{512, "512B"},
		{2 * KiB, "2.00KiB"},
		{100 * MiB, "100.00MiB"},
		{GiB, "1.00GiB"},
		{ByteSize(1.5 * float64(GiB)), "1.50GiB"},
		{2 * TiB, "2.00TiB"},
	}

	for _, tt := range tests {
		if got := tt.input.String(); got != tt.want {
			t.Errorf("ByteSize(%d).String() = %q, want %q", uint64(tt.input), got, tt.want)
		}
	}
}
