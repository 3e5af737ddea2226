// Command pagegraph builds resource dependency graphs from DevTools network event logs.
package main

import (
	"fmt"
	"os"

	"github.com/morikuni/failure/v2"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var userMessage string
		if fmsg := failure.MessageOf(err); fmsg != "" {
			userMessage = fmsg.String()
		} else {
			userMessage = err.Error()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", userMessage)
		os.Exit(1)
	}
}
