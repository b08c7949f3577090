package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leobastiani/jotai/pkg/devtools"
	"github.com/leobastiani/jotai/pkg/jotai"
	"github.com/leobastiani/jotai/pkg/observe"
)

func devtoolsCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "devtools",
		Short: "Run a demo store with the devtools inspector",
		Long: `Starts a store with a small demo atom graph, keeps writing to it
at the given interval, and serves the devtools inspector so the
HTTP API and the /ws event stream can be explored by hand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.Default()

			store := jotai.NewStore(
				jotai.WithObserver(observe.NewPrometheus(observe.WithNamespace("jotai_demo"))),
			)
			defer store.Close()

			stop := make(chan struct{})
			go demoChurn(store, interval, stop)
			defer close(stop)

			srv := devtools.New(store,
				devtools.WithLogger(log),
				// Demo server; any origin may connect.
				devtools.WithCheckOrigin(func(*http.Request) bool { return true }),
			)

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()

			select {
			case err := <-errCh:
				return err
			case <-shutdown:
				log.Info("shutting down...")
				return srv.Shutdown(context.Background())
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8787", "Devtools listen address")
	cmd.Flags().DurationVar(&interval, "interval", 250*time.Millisecond, "Demo write interval")

	return cmd
}

// demoChurn keeps a small atom graph busy so the inspector has
// something to show.
func demoChurn(store *jotai.Store, interval time.Duration, stop <-chan struct{}) {
	temperature := jotai.NewAtom(20.0, jotai.WithLabel("temperature"))
	humidity := jotai.NewAtom(50.0, jotai.WithLabel("humidity"))
	comfort := jotai.NewDerived(func(g jotai.Getter) (float64, error) {
		temp, err := jotai.Get(g, temperature)
		if err != nil {
			return 0, err
		}
		hum, err := jotai.Get(g, humidity)
		if err != nil {
			return 0, err
		}
		return temp - (hum-45)/10, nil
	}, jotai.WithLabel("comfort"))

	unsub := store.Subscribe(comfort, func() {
		jotai.Get(store, comfort)
	})
	defer unsub()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			store.Batch(func() {
				jotai.Set(store, temperature, 15+rand.Float64()*15)
				jotai.Set(store, humidity, 30+rand.Float64()*40)
			})
		}
	}
}
