package sink

import (
	"testing"

	pferrors "github.com/matzehuels/packetflow/pkg/errors"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"svg", FormatSVG, false},
		{" JSON ", FormatJSON, false},
		{"png", FormatPNG, false},
		{"pdf", FormatPDF, false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
		if tt.wantErr && !pferrors.Is(err, pferrors.ErrCodeInvalidFormat) {
			t.Errorf("ParseFormat(%q) error code = %s", tt.in, pferrors.GetCode(err))
		}
	}
}

func TestRenderDispatch(t *testing.T) {
	f := testFrame(t, 1)
	for _, format := range []string{FormatSVG, FormatJSON} {
		data, err := Render(f, format)
		if err != nil || len(data) == 0 {
			t.Errorf("Render(%s) = %d bytes, %v", format, len(data), err)
		}
	}
	if _, err := Render(f, "bmp"); err == nil {
		t.Error("Render accepted an unknown format")
	}
	if ContentType(FormatSVG) != "image/svg+xml" {
		t.Errorf("ContentType(svg) = %s", ContentType(FormatSVG))
	}
}
