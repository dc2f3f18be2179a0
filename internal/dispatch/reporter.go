package dispatch

import (
	logx "botcast/pkg/logx"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Reporter receives human-readable progress lines. Calls are fire-and-forget:
// a reporter that blocks or panics must not be able to stall or kill the
// dispatch loop (see Dispatcher.report).
type Reporter interface {
	Report(line string, sev Severity)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(line string, sev Severity)

func (f ReporterFunc) Report(line string, sev Severity) { f(line, sev) }

// LogReporter routes progress lines into the structured log.
func LogReporter(log logx.Logger) Reporter {
	return ReporterFunc(func(line string, sev Severity) {
		switch sev {
		case SeverityWarning:
			log.Warn(line)
		case SeverityError:
			log.Error(line)
		default:
			log.Info(line)
		}
	})
}
