// Package logger provides per-subsystem structured logging for the core.
//
// It is a thin wrapper over glog: each subsystem gets its own verbosity
// gate so a host can turn on CPU tracing without paying for PPU/APU
// logging in the hot path.
package logger

import (
	"github.com/golang/glog"
)

// Verbosity levels used to gate per-subsystem tracing via glog.V(n).
const (
	levelCPU    glog.Level = 3
	levelPPU    glog.Level = 4
	levelAPU    glog.Level = 4
	levelMapper glog.Level = 3
)

// LogCPU logs CPU instruction/interrupt tracing at glog.V(3).
func LogCPU(format string, args ...interface{}) {
	if glog.V(levelCPU) {
		glog.Infof("CPU: "+format, args...)
	}
}

// LogPPU logs PPU register and rendering tracing at glog.V(4).
func LogPPU(format string, args ...interface{}) {
	if glog.V(levelPPU) {
		glog.Infof("PPU: "+format, args...)
	}
}

// LogAPU logs APU channel/sequencer tracing at glog.V(4).
func LogAPU(format string, args ...interface{}) {
	if glog.V(levelAPU) {
		glog.Infof("APU: "+format, args...)
	}
}

// LogMapper logs mapper bank-switch and IRQ tracing at glog.V(3).
func LogMapper(format string, args ...interface{}) {
	if glog.V(levelMapper) {
		glog.Infof("MAPPER: "+format, args...)
	}
}

// LogInfo logs general informational messages unconditionally.
func LogInfo(format string, args ...interface{}) {
	glog.Infof(format, args...)
}

// LogWarn logs a recoverable condition, e.g. an unimplemented opcode.
func LogWarn(format string, args ...interface{}) {
	glog.Warningf(format, args...)
}

// LogError logs a non-fatal error.
func LogError(format string, args ...interface{}) {
	glog.Errorf(format, args...)
}

// Flush flushes buffered log entries; callers should defer this from main.
func Flush() {
	glog.Flush()
}
