package statechart

func (sc *Statechart) logError(msg string, err error, args ...any) {
	sc.logger.Error(msg, append([]any{"statechart", sc.Name(), "error", err}, args...)...)
}

func (sc *Statechart) logWarning(msg string, args ...any) {
	sc.logger.Warn(msg, append([]any{"statechart", sc.Name()}, args...)...)
}

// logTrace records a routing or transition step when trace logging is on.
// style groups related steps.
func (sc *Statechart) logTrace(msg string, style string, args ...any) {
	if !sc.traceLogging {
		return
	}
	sc.logger.Debug(msg, append([]any{"statechart", sc.Name(), "style", style}, args...)...)
}
