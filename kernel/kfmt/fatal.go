package kfmt

import "vmcore/kernel"

// Fatal reports an unrecoverable condition tagged with bugcode and module,
// then halts the CPU. Fatal never returns. It is the fatal(code, module,
// fmt, ...) contract the vm core's components call into when an invariant
// cannot be recovered.
func Fatal(bugcode kernel.BugCode, module string, format string, args ...interface{}) {
	Printf("\n-----------------------------------\n")
	Printf("*** STOP: %s (module '%s')\n", bugcode.String(), module)
	Printf(format, args...)
	Printf("\n-----------------------------------\n")

	cpuHaltFn()
	for {
	}
}
