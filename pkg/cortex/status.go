package cortex

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the parsed form of a STATUS query reply.
type Status struct {
	Mode    string // IDLE, STREAMING, AUTH_VALID or AUTH_INVALID
	Profile string // COOPERATIVE or ADVERSARIAL
	Samples uint64 // sample count of the current run
	Uptime  time.Duration
}

// ParseStatus parses the payload of a STATUS query reply, i.e. the text of
// an EventStatus shaped like
//
//	Mode=STREAMING,Profile=COOPERATIVE,Samples=123,Uptime=45s
//
// Acknowledgement texts ("Stopped", "Started streaming ...") are not status
// reports and yield an error.
func ParseStatus(text string) (Status, error) {
	var st Status
	seen := 0

	for _, field := range strings.Split(text, ",") {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Status{}, fmt.Errorf("not a status report: %q", text)
		}

		switch key {
		case "Mode":
			st.Mode = value
			seen++
		case "Profile":
			st.Profile = value
			seen++
		case "Samples":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Status{}, fmt.Errorf("invalid sample count %q: %w", value, err)
			}
			st.Samples = n
			seen++
		case "Uptime":
			seconds, err := strconv.ParseInt(strings.TrimSuffix(value, "s"), 10, 64)
			if err != nil {
				return Status{}, fmt.Errorf("invalid uptime %q: %w", value, err)
			}
			st.Uptime = time.Duration(seconds) * time.Second
			seen++
		default:
			return Status{}, fmt.Errorf("unknown status field %q", key)
		}
	}

	if seen != 4 {
		return Status{}, fmt.Errorf("incomplete status report: %q", text)
	}
	return st, nil
}
