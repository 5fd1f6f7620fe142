// Package runner executes one scheduled scenario inside a fixed wall-clock
// window.
//
// A Runner owns a single scenario. Run drives it through these states:
//
//	INIT -> ARGS_OVERRIDDEN -> (SKIPPED | RUNNING) -> {PASSED | FAILED | TIMED_OUT}
//	     -> IDLE_BEFORE_TEARDOWN? -> TEARDOWN -> IDLE_BEFORE_NEXT? -> ARGS_RESTORED -> DONE
//
// TIME BUDGET:
//
// The window W is split between the journey and a teardown leeway L. Setup
// and Test together get W-L; Teardown gets at most L. A journey that passes
// early with the STAY_IN_APP policy idles in the app for W-elapsed-2L before
// teardown. Whatever is left of W after teardown is spent idling before the
// next scenario, so the next scenario starts on its slot even when this one
// ran over, failed or was skipped. That last idle is measured on the clock
// after teardown returns, not derived from the earlier phases: a passing
// STAY_IN_APP run therefore ends with about 2L left to idle, since teardown
// itself rarely uses its full leeway.
//
// Scenarios are sequential. The shared argument bundle is overridden with the
// scenario's extras for the length of Run and restored on every path; no two
// runners may hold the same bundle at once.
//
// Results surface only through the Notifier.
package runner
