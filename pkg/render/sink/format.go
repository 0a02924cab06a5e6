package sink

import (
	"strings"

	"github.com/matzehuels/packetflow/pkg/anim"
	pferrors "github.com/matzehuels/packetflow/pkg/errors"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// Formats lists the formats accepted by [Render].
var Formats = []string{FormatSVG, FormatJSON, FormatPNG, FormatPDF}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// ParseFormat normalises a format name.
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(s))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", pferrors.New(pferrors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", s, strings.Join(Formats, ", "))
}

// Render renders f in the given format.
func Render(f anim.Frame, format string) ([]byte, error) {
	switch format {
	case FormatSVG:
		return RenderSVG(f), nil
	case FormatJSON:
		return RenderJSON(f)
	case FormatPNG:
		return RenderPNG(f)
	case FormatPDF:
		return RenderPDF(f)
	}
	return nil, pferrors.New(pferrors.ErrCodeInvalidFormat, "unknown format %q", format)
}
