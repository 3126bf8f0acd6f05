package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// progressEvent is one engine progress callback, carried across goroutines.
type progressEvent struct {
	message string
	current int
	total   int
}

// withProgress runs work on its own goroutine and prints the progress events
// it reports until work returns. Each report blocks until its line is
// printed, so work and the printer never write at the same time.
func withProgress(w io.Writer, work func(report func(message string, current, total int))) {
	events := make(chan progressEvent)
	printed := make(chan struct{})
	go func() {
		defer close(events)
		work(func(msg string, current, total int) {
			events <- progressEvent{message: msg, current: current, total: total}
			<-printed
		})
	}()

	for ev := range events {
		step := ev.current
		if step < ev.total {
			step++
		}
		fmt.Fprintf(w, "[%d/%d] %s\n", step, ev.total, ev.message)
		printed <- struct{}{}
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}

// printList prints a titled bullet list; nothing is printed when items is empty.
func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  • %s\n", item)
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func mode(dryRun bool) string {
	if dryRun {
		return "DRY RUN"
	}
	return "LIVE"
}
