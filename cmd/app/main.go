package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pwnholic/docexport/internal"
)

func main() {
	startTime := time.Now()

	customFlag, err := parseFlag(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, err := run(ctx, customFlag)
	if err != nil {
		internal.Error("Something went wrong: %s", err.Error())
		stop()
		os.Exit(1)
	}

	fmt.Println(location)
	internal.Success("Program completed in %v", time.Since(startTime))
}
