// Package nandabridge provides a Go SDK for supervising the NANDA Python
// bridge worker.
//
// The SDK spawns the bridge script as a long-lived subprocess and exchanges
// newline-delimited JSON commands and responses over its standard streams.
// Concurrent commands are correlated with their replies by id, each with its
// own timeout, and unsolicited worker events are dispatched to registered
// handlers.
//
// # Basic Usage
//
//	ctx := context.Background()
//
//	b := nandabridge.New()
//	defer b.Stop(ctx)
//
//	err := b.Start(ctx,
//	    nandabridge.WithLogger(slog.Default()),
//	    nandabridge.WithScriptPath("python/bridge_wrapper.py"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := b.RegisterLogic(ctx, "pirate"); err != nil {
//	    log.Fatal(err)
//	}
//
//	improved, err := b.TestImprovement(ctx, "hello world")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(improved)
//
// # Events
//
// The worker emits unsolicited notifications, for example server_error when
// a background server fails. Handlers run synchronously, in registration
// order:
//
//	sub := b.OnEvent("server_error", func(name string, data map[string]any) {
//	    log.Printf("worker reported: %v", data)
//	})
//	defer b.OffEvent(sub)
//
// # Error Handling
//
// Every operation either completes or fails with a typed error:
//
//	improved, err := b.TestImprovement(ctx, msg)
//	if err != nil {
//	    if toErr, ok := errors.AsType[*nandabridge.CommandTimeoutError](err); ok {
//	        log.Printf("no reply for %s within %s", toErr.Command, toErr.Timeout)
//	    }
//	    if exitErr, ok := errors.AsType[*nandabridge.ProcessExitError](err); ok {
//	        log.Printf("worker died with code %d: %s", exitErr.ExitCode, exitErr.Stderr)
//	    }
//	}
//
// # Requirements
//
// A Python 3 interpreter must be installed. Use WithPythonPath to point at a
// specific interpreter and WithScriptPath at the bridge script; by default
// python3 is searched on PATH and the bundled python/bridge_wrapper.py is
// used.
package nandabridge
