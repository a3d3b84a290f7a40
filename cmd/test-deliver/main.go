// Command test-deliver is a manual test for summary delivery.
// It waits 3 seconds, then hands a sample summary to the desktop.
// Focus a text editor before the countdown finishes.
//
// Usage:
//
//	go run ./cmd/test-deliver [--method clipboard|type|paste]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chaz8081/gostt-summarizer/internal/deliver"
)

func main() {
	method := flag.String("method", "type", "delivery method: clipboard, type or paste")
	flag.Parse()

	text := "Summary:\n- Ship on Friday\n- Alice owns the release notes\n"

	d, err := deliver.New(*method)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Will deliver a sample summary using %q in 3 seconds...\n", *method)
	fmt.Println("Focus a text editor now!")
	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	if err := d.Deliver(text); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nDone!")
}
