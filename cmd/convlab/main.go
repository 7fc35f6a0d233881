// Package main provides the convlab CLI: check the convolution variants
// against the reference, benchmark them, and exchange layer weights.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

const version = "v0.1.0"

const usage = `convlab - 2D convolution from first principles

Usage:
  convlab <command> [flags]

Commands:
  check     Compare every variant with the reference convolution
  bench     Time every variant
  export    Write a randomly initialised layer to a SafeTensors file
  apply     Run one variant with weights loaded from a SafeTensors file
  version   Show version

Run "convlab <command> -h" for the flags of a command.
`

func main() {
	log.SetFlags(0)
	log.SetPrefix("convlab: ")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "check":
		err = runCheck(args, os.Stdout)
	case "bench":
		err = runBench(ctx, args, os.Stdout)
	case "export":
		err = runExport(args, os.Stdout)
	case "apply":
		err = runApply(args, os.Stdout)
	case "version":
		fmt.Printf("convlab %s\n", version)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, flag.ErrHelp) {
		stop()
		log.Fatal(err)
	}
}
