// ABOUTME: Side effects that can be fired at the trigger instant
// ABOUTME: Provides log, external command and chained actions
package action

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"time"
)

// Func is a no-argument side effect. It must not block for long; it runs on
// the trigger goroutine right after the target is reached.
type Func func()

// Log writes a timestamped line to w when fired.
func Log(w io.Writer) Func {
	return func() {
		fmt.Fprintf(w, "FIRED at %s\n", time.Now().Format("15:04:05.000000"))
	}
}

// Command runs an external program, e.g. "xdotool click 1" to click the
// pointer. The program is started and waited for; its output goes to the
// log, never the terminal, and failures are logged.
func Command(name string, args ...string) Func {
	return func() {
		out := log.Writer()
		cmd := exec.CommandContext(context.Background(), name, args...)
		cmd.Stdout = out
		cmd.Stderr = out
		if err := cmd.Run(); err != nil {
			log.Printf("Action command %s failed: %v", name, err)
		}
	}
}

// Chain fires each action in order.
func Chain(actions ...Func) Func {
	return func() {
		for _, a := range actions {
			if a != nil {
				a()
			}
		}
	}
}
