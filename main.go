// ABOUTME: Entry point for the headerclock trigger
// ABOUTME: Reads the target instant, spins on remote time and fires the action once
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/headerclock/internal/action"
	"github.com/harperreed/headerclock/internal/metrics"
	"github.com/harperreed/headerclock/internal/skew"
	"github.com/harperreed/headerclock/internal/timesource"
	"github.com/harperreed/headerclock/internal/trigger"
	"github.com/harperreed/headerclock/internal/ui"
	"github.com/harperreed/headerclock/internal/version"
)

var (
	host        = flag.String("host", "", "Remote host whose Date header is authoritative (required)")
	scheme      = flag.String("scheme", "https", "URL scheme: https or http")
	path        = flag.String("path", "/", "Real resource path used by the fresh-client strategy")
	missingPath = flag.String("missing-path", "/dummy", "Path expected to 404, used by the reusing strategies")
	strategy    = flag.String("strategy", string(timesource.StrategyPersistent), "Fetch strategy: fresh-client, session-reuse, persistent-conn, websocket-upgrade")
	at          = flag.String("at", "", "Target local time as YYYY-MM-DD HH:MM:SS (prompted if empty)")
	utcOffset   = flag.Duration("utc-offset", trigger.DefaultOffset, "Fixed UTC offset of the target time")
	timeout     = flag.Duration("timeout", 5*time.Second, "Per-fetch network timeout")
	actions     = flag.String("action", "log", "Comma-separated actions to fire: log, beep, command")
	command     = flag.String("command", "xdotool click 1", "Command run by the command action")
	ntpServer   = flag.String("ntp-server", "", "NTP server to check the local clock against before waiting (empty to skip)")
	logFile     = flag.String("log-file", "headerclock.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

// statusInterval throttles TUI updates from the spin loop.
const statusInterval = 50 * time.Millisecond

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always happens.
func run() int {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("error opening log file: %v", err)
		return 1
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("Starting %s %s", version.Product, version.Version)

	endpoint := timesource.Endpoint{
		Scheme:             *scheme,
		Host:               *host,
		Path:               *path,
		MissingPath:        *missingPath,
		Header:             timesource.DefaultHeader,
		Timeout:            *timeout,
		InsecureSkipVerify: true,
		UserAgent:          version.UserAgent(),
	}
	if err := endpoint.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid endpoint: %v\n", err)
		log.Printf("Invalid endpoint: %v", err)
		return 2
	}

	source, err := timesource.New(timesource.StrategyID(*strategy), endpoint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid strategy: %v\n", err)
		log.Printf("Invalid strategy: %v", err)
		return 2
	}
	if c, ok := source.(io.Closer); ok {
		defer c.Close()
	}

	fire, err := buildAction(*actions, *command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid action: %v\n", err)
		log.Printf("Invalid action: %v", err)
		return 2
	}

	if *ntpServer != "" {
		ref, err := skew.QueryNTP(*ntpServer, *timeout)
		if err != nil {
			log.Printf("NTP check skipped: %v", err)
		} else {
			log.Printf("Local clock vs %s: offset=%v rtt=%v stratum=%d", ref.Server, ref.ClockOffset, ref.RTT, ref.Stratum)
		}
	}

	// The target is read before the TUI takes over the terminal.
	text := *at
	if text == "" {
		text, err = promptTarget(os.Stdin, os.Stdout, *utcOffset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read target time: %v\n", err)
			log.Printf("Failed to read target time: %v", err)
			return 1
		}
	}
	target, err := trigger.ParseTarget(text, *utcOffset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid target time: %v\n", err)
		log.Printf("Invalid target time: %v", err)
		return 1
	}
	fmt.Println(target.Format("2006-01-02 15:04:05 UTC"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// TUI setup
	var tuiProg *tea.Program
	var ctrl *ui.Control
	if useTUI {
		ctrl = ui.NewControl()
		tuiProg, err = ui.Run(ctrl)
		if err != nil {
			log.Printf("Failed to start TUI: %v", err)
			return 1
		}
		go tuiProg.Run()

		// A quit from the TUI cancels the wait like a signal would.
		go func() {
			select {
			case <-ctrl.Quit:
				stop()
			case <-ctx.Done():
			}
		}()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}
	updateTUI(ui.StatusMsg{
		Host:     endpoint.Host,
		Strategy: string(source.ID()),
		Target:   target,
		State:    trigger.StateWaiting.String(),
	})

	recorder := metrics.NewRecorder()
	tracker := skew.NewTracker()
	invoker := &timesource.Invoker{Observer: recorder}

	controller := trigger.NewController(source, invoker, trigger.Action(fire))

	var attempts, failures int
	var lastStatus time.Time
	controller.OnSample = func(o timesource.Outcome) {
		tracker.Process(o)
		attempts++
		if !o.OK {
			failures++
		}
		if tuiProg == nil || time.Since(lastStatus) < statusInterval {
			return
		}
		lastStatus = time.Now()
		msg := ui.StatusMsg{
			LastSample: o.Instant,
			Attempts:   attempts,
			Failures:   failures,
		}
		if !o.OK {
			msg.LastFault = string(o.Fault)
		}
		skewStatus(tracker, &msg)
		updateTUI(msg)
	}

	result, err := controller.Run(ctx, target)
	if err != nil {
		if tuiProg != nil {
			tuiProg.Quit()
		}
		log.Printf("Trigger stopped before firing: %v", err)
		return 1
	}

	final := ui.StatusMsg{
		State:      trigger.StateFired.String(),
		LastSample: result.Fired.Instant,
		Attempts:   result.Attempts,
		Failures:   result.Failures,
		FiredAt:    result.FiredAt,
	}
	skewStatus(tracker, &final)

	log.Printf("Fired %s: remote=%s local=%s attempts=%d failures=%d",
		result.RunID,
		result.Fired.Instant.Format(time.RFC3339),
		result.FiredAt.Format("15:04:05.000000"),
		result.Attempts,
		result.Failures)
	log.Printf("Skew estimate: offset=%v rtt=%v quality=%s samples=%d",
		final.Offset, final.RTT, final.Quality, tracker.Samples())

	var summary strings.Builder
	if err := recorder.WriteSummary(&summary); err != nil {
		log.Printf("Metrics summary failed: %v", err)
	} else {
		log.Printf("Fetch outcomes:\n%s", summary.String())
	}

	if tuiProg == nil {
		return 0
	}

	updateTUI(final)

	// Keep the final status on screen until the operator quits.
	<-ctx.Done()
	tuiProg.Quit()
	return 0
}

// skewStatus fills the skew fields of msg. Staleness is re-checked on every
// call so an outage shows as lost instead of the last good estimate.
func skewStatus(tr *skew.Tracker, msg *ui.StatusMsg) {
	quality := tr.CheckQuality()
	offset, rtt, _ := tr.Stats()
	msg.Offset = offset
	msg.RTT = rtt
	msg.Quality = quality.String()
	if tr.Samples() > 0 {
		msg.Estimate = tr.RemoteNow()
	}
}

// promptTarget reads one line from r. There is no retry on bad input.
func promptTarget(r io.Reader, w io.Writer, offset time.Duration) (string, error) {
	fmt.Fprintf(w, "type target date & time at UTC%+.1fh in this format, e.g. 2022-02-10 08:30:00 : ", offset.Hours())

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// buildAction turns the -action list into one chained action.
func buildAction(list, commandLine string) (action.Func, error) {
	var chain []action.Func
	for _, name := range strings.Split(list, ",") {
		switch strings.TrimSpace(name) {
		case "":
		case "log":
			chain = append(chain, action.Log(log.Writer()))
		case "command":
			fields := strings.Fields(commandLine)
			if len(fields) == 0 {
				return nil, fmt.Errorf("command action needs -command")
			}
			chain = append(chain, action.Command(fields[0], fields[1:]...))
		case "beep":
			beeper, err := action.NewBeeper(action.DefaultTone())
			if err != nil {
				return nil, err
			}
			chain = append(chain, beeper.Func())
		default:
			return nil, fmt.Errorf("unknown action %q", name)
		}
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("no actions selected")
	}
	return action.Chain(chain...), nil
}
