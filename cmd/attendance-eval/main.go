// Command attendance-eval replays a YAML group fixture through the check-in validation engine
// and prints each decision and the resulting daily summaries.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/fixtures"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		slog.Error("attendance-eval failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	flags := flag.NewFlagSet("attendance-eval", flag.ContinueOnError)
	file := flags.String("f", "-", "fixture file, - for stdin")
	timezone := flags.String("tz", "UTC", "time zone for groups without one")
	format := flags.String("format", "json", "output format: json or text")
	multi := flags.Bool("multi", false, "allow a new check-in after a closed session")
	if err := flags.Parse(args); err != nil {
		return err
	}

	zone, err := time.LoadLocation(*timezone)
	if err != nil {
		return fmt.Errorf("invalid -tz: %w", err)
	}

	input := stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	fixture, err := fixtures.Decode(input)
	if err != nil {
		return err
	}

	report, err := fixtures.Replay(context.Background(), fixture, fixtures.Options{
		DefaultZone:           zone,
		AllowMultipleSessions: *multi,
	})
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text":
		for _, d := range report.Decisions {
			fmt.Fprintln(stdout, d.String())
		}
		for _, s := range report.Summaries {
			fmt.Fprintf(stdout, "%s %s: %s h, present=%t late=%t events=%d\n",
				s.EmployeeID, s.Date, s.TotalHoursWorked.StringFixed(2), s.IsPresent, s.IsLate, s.TotalEventCount)
		}
		return nil
	default:
		return fmt.Errorf("unknown -format %q", *format)
	}
}
