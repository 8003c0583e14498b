package kfmt

// Level identifies the severity of a diagnostic message passed to Logf.
type Level uint8

// Diagnostic levels used by the vm core. Logf prints every level the same
// way; the level only tags the emitted line.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "?"
	}
}

// Logf is the log(level, fmt, ...) diagnostic primitive: conditions that
// merely waste space or indicate a caller mistake that does not threaten an
// address-space invariant are logged here rather than routed to Fatal.
func Logf(level Level, module string, format string, args ...interface{}) {
	Printf("[%s] %s: ", level.String(), module)
	Printf(format, args...)
	Printf("\n")
}
