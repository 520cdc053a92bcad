package device

import (
	"fmt"
	"strings"
)

// Execute interprets one command line, applies its state transition, and
// writes the single-line reply to the output channel. Matching is
// case-insensitive on the whitespace-trimmed line; there is no partial
// matching. The reply is also returned for callers that want it directly.
//
// STATUS is a pure query: it reports mode, profile, the sample count of the
// current run, and uptime, without touching any state.
func (d *Device) Execute(line string) string {
	var reply string

	switch strings.ToUpper(strings.TrimSpace(line)) {
	case "START":
		d.mode = ModeStreaming
		d.profile = ProfileCooperative
		d.resetRun()
		reply = "STATUS:Started streaming (cooperative profile)"

	case "STOP":
		d.mode = ModeIdle
		d.setIndicator(false)
		reply = "STATUS:Stopped"

	case "MOCK_AUTH":
		d.profile = ProfileCooperative
		reply = "STATUS:Switched to cooperative profile"

	case "MOCK_IMP":
		d.profile = ProfileAdversarial
		reply = "STATUS:Switched to adversarial profile"

	case "STATUS":
		reply = fmt.Sprintf("STATUS:Mode=%s,Profile=%s,Samples=%d,Uptime=%ds",
			d.mode, d.profile, d.sampleCount, d.clock.Micros()/1_000_000)

	default:
		reply = "ERROR:Unknown command"
	}

	fmt.Fprintln(d.out, reply)
	return reply
}
