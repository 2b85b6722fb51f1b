// Command kstate-tool is a small command-line wrapper around the kstate
// package, for scripting and manual exploration of named shared states.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kynesim/go-kstate"
	"github.com/kynesim/go-kstate/internal/diag"
)

func main() {
	var verbose = flag.Bool("v", false, "verbose diagnostic output")
	flag.Usage = usage
	flag.Parse()

	logConfig := diag.DefaultConfig()
	if *verbose {
		logConfig.Level = diag.LevelDebug
	}
	diag.SetDefault(diag.NewLogger(logConfig))

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "sub":
		err = runSub(args[1:])
	case "get":
		err = runGet(args[1:])
	case "set":
		err = runSet(args[1:])
	case "unique":
		err = runUnique(args[1:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "kstate-tool: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: kstate-tool [-v] <command> [args]

commands:
  sub <name>              subscribe read/write, print the region as hex,
                           then block until SIGINT/SIGTERM and unsubscribe
  get <name>              subscribe read-only and print the region as hex
  set <name> <hex-bytes>  subscribe read/write and commit hex bytes via a transaction
  unique <prefix>         print a fresh unique name under prefix
`)
}

// runSub subscribes read/write and holds the subscription open until the
// process receives SIGINT or SIGTERM, matching the teacher's
// wait-for-shutdown-signal-then-clean-up shape.
func runSub(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sub <name>")
	}
	s := kstate.NewState(nil)
	if err := s.Subscribe(args[0], kstate.Read|kstate.Write); err != nil {
		return err
	}
	defer s.Unsubscribe()
	fmt.Println(kstate.FormatState(s))

	data, err := s.View()
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", hex.EncodeToString(data))

	fmt.Printf("subscribed to %q, pid %d; press Ctrl+C to unsubscribe and exit\n", args[0], os.Getpid())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	diag.Info("received shutdown signal, unsubscribing", "name", args[0])
	return nil
}

func runGet(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: get <name>")
	}
	s := kstate.NewState(nil)
	if err := s.Subscribe(args[0], kstate.Read); err != nil {
		return err
	}
	defer s.Unsubscribe()

	data, err := s.View()
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(data))
	return nil
}

func runSet(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set <name> <hex-bytes>")
	}
	value, err := hex.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("decoding hex bytes: %w", err)
	}

	s := kstate.NewState(nil)
	if err := s.Subscribe(args[0], kstate.Read|kstate.Write); err != nil {
		return err
	}
	defer s.Unsubscribe()

	tx := kstate.NewTransaction(nil)
	if err := tx.Start(s, kstate.Write); err != nil {
		return err
	}
	mut, err := tx.ViewMut()
	if err != nil {
		tx.Abort()
		return err
	}
	n := copy(mut, value)
	if n < len(value) {
		tx.Abort()
		return fmt.Errorf("value is larger than the state's region (%d bytes)", len(mut))
	}
	return tx.Commit()
}

func runUnique(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: unique <prefix>")
	}
	name, err := kstate.GetUniqueName(args[0])
	if err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}
