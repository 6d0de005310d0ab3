package actuator

// ReportSize is the length of every output report the device accepts.
const ReportSize = 14

// Report is one raw output report.
type Report [ReportSize]byte

const (
	intensityOffset = 8
	backlightOffset = 7
)

// Only the vibration layout has been confirmed against a device. The backlight and restart
// layouts are unverified.
var (
	vibrationTemplate = Report{0x02, 0x07, 0xBF, 0x00, 0x00, 0x03, 0x49, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	backlightTemplate = Report{0x02, 0x10, 0xBB, 0x00, 0x00, 0x03, 0x49, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	restartReport     = Report{0x02, 0x07, 0xBF, 0x00, 0x00, 0x03, 0x49, 0x0A, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
)

// ReportKind names the three report types.
type ReportKind int

const (
	// KindUnknown is any report not produced by this package.
	KindUnknown ReportKind = iota
	// KindVibration carries a motor intensity.
	KindVibration
	// KindBacklight carries a backlight intensity.
	KindBacklight
	// KindRestart reboots the device.
	KindRestart
)

func (k ReportKind) String() string {
	switch k {
	case KindVibration:
		return "vibration"
	case KindBacklight:
		return "backlight"
	case KindRestart:
		return "restart"
	case KindUnknown:
	}
	return "unknown"
}

// VibrationReport encodes a motor intensity.
func VibrationReport(intensity uint8) Report {
	r := vibrationTemplate
	r[intensityOffset] = intensity
	return r
}

// BacklightReport encodes a backlight intensity.
func BacklightReport(intensity uint8) Report {
	r := backlightTemplate
	r[backlightOffset] = intensity
	return r
}

// RestartReport returns the parameterless restart report.
func RestartReport() Report {
	return restartReport
}

// DecodeReport classifies a report and returns its payload value (zero for restart).
func DecodeReport(r Report) (ReportKind, uint8) {
	switch {
	case r == restartReport:
		return KindRestart, 0
	case matchesTemplate(r, vibrationTemplate, intensityOffset):
		return KindVibration, r[intensityOffset]
	case matchesTemplate(r, backlightTemplate, backlightOffset):
		return KindBacklight, r[backlightOffset]
	}
	return KindUnknown, 0
}

func matchesTemplate(r, template Report, valueOffset int) bool {
	r[valueOffset] = template[valueOffset]
	return r == template
}
