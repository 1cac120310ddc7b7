package player

import "strings"

// Decoder selects which decoder path the engine may use.
type Decoder int

const (
	DecoderAuto Decoder = iota
	DecoderHardware
	DecoderSoftware
)

// ParseDecoder maps the configuration spelling of a decoder; unknown values mean auto.
func ParseDecoder(s string) Decoder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hardware", "hw":
		return DecoderHardware
	case "software", "sw":
		return DecoderSoftware
	default:
		return DecoderAuto
	}
}

func (d Decoder) String() string {
	switch d {
	case DecoderHardware:
		return "hardware"
	case DecoderSoftware:
		return "software"
	default:
		return "auto"
	}
}

// Alternate returns the decoder path to fall back to after a decoder failure.
func (d Decoder) Alternate() Decoder {
	if d == DecoderSoftware {
		return DecoderHardware
	}
	return DecoderSoftware
}

// mpvArgs restricts mpv's codec selection to the decoder path.
func (d Decoder) mpvArgs() []string {
	switch d {
	case DecoderHardware:
		return []string{"--hwdec=auto-safe", "--vd-lavc-software-fallback=no"}
	case DecoderSoftware:
		return []string{"--hwdec=no"}
	default:
		return []string{"--hwdec=auto-copy-safe"}
	}
}
