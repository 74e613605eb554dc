package serialline

// evaluation is the matcher's verdict for one line against the head command.
type evaluation struct {
	accumulate bool
	complete   bool
}

// evaluate decides whether line is scan data for cmd, completes cmd, both,
// or neither. A line may do both: accumulation is applied before completion
// is acted on, so a completing line that also matches the scan pattern ends
// up in the accumulated data.
func evaluate(cmd *command, line string) evaluation {
	var ev evaluation
	if cmd.scan != nil && cmd.scan.Match(line) {
		ev.accumulate = true
	}
	if cmd.response != nil && cmd.response.Match(line) {
		ev.complete = true
	}
	return ev
}

// resultOf builds the resolution data for a command completed by line.
func resultOf(cmd *command, line string) Result {
	if cmd.scan != nil {
		return Result{Lines: cmd.scanned}
	}
	return Result{Line: line}
}
