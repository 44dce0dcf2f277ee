// Command vnctail connects to a vnclog broadcast endpoint
// (internal/wsbroadcast.Hub.ServeHTTP) and prints each recorded command
// script line as it arrives, reconnecting automatically if the
// connection drops.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sibson/vncdotool/internal/config"
	"github.com/sibson/vncdotool/internal/logging"
	wsclient "github.com/sibson/vncdotool/internal/websocket"
)

var cfgFile string

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "vnctail URL",
	Short: "Live-tail a vnclog recording proxy's broadcast endpoint",
	Long: `vnctail connects to the WebSocket live-tail endpoint a vnclog
proxy exposes when run with --broadcast, and prints each recorded
command-script line to stdout as it is captured.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTail(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches /etc/vncdotool or .)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTail(url string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	log = logging.L("main")

	client := wsclient.New(&wsclient.Config{ServerURL: url}, func(line string) {
		fmt.Println(line)
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down vnctail")
		client.Stop()
	}()

	client.Start()
	return nil
}
