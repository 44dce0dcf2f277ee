package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sibson/vncdotool/internal/audit"
	"github.com/sibson/vncdotool/internal/config"
	"github.com/sibson/vncdotool/internal/logging"
	"github.com/sibson/vncdotool/internal/proxy"
	"github.com/sibson/vncdotool/internal/rfb"
	"github.com/sibson/vncdotool/internal/wsbroadcast"
)

var (
	cfgFile    string
	listenAddr string
	outputDir  string
	maxConns   int
	broadcast  bool
	broadcastAddr string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "vnclog UPSTREAM",
	Short: "Record RFB sessions passing through to an upstream VNC server",
	Long: `vnclog sits between a VNC client and a real VNC server. It forwards
every byte unmodified in both directions while independently decoding
keyboard, mouse, and framebuffer traffic into a vncdo-compatible
command script, one per connection.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProxy(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches /etc/vncdotool or .)")
	rootCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "address to listen on (default from config, e.g. :5901)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory to record one timestamped .vdo script per connection; empty records to stdout")
	rootCmd.Flags().IntVarP(&maxConns, "max-conns", "m", 0, "maximum concurrent recorded connections (0 uses config default)")
	rootCmd.Flags().BoolVar(&broadcast, "broadcast", false, "also serve a WebSocket live tail of recorded lines")
	rootCmd.Flags().StringVar(&broadcastAddr, "broadcast-addr", "", "address for the WebSocket live-tail HTTP server")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runProxy(upstreamAddr string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	log = logging.L("main")

	upstream, err := rfb.ParseServerAddress(upstreamAddr)
	if err != nil {
		return fmt.Errorf("parsing upstream address %q: %w", upstreamAddr, err)
	}

	addr := cfg.ProxyListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}
	dir := cfg.ProxyOutputDir
	if outputDir != "" {
		dir = outputDir
	}
	conns := cfg.ProxyMaxConns
	if maxConns > 0 {
		conns = maxConns
	}
	useBroadcast := cfg.ProxyBroadcast || broadcast
	bcastAddr := cfg.ProxyBroadcastAddr
	if broadcastAddr != "" {
		bcastAddr = broadcastAddr
	}

	var sink proxy.ScriptSink
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir %s: %w", dir, err)
		}
		sink = proxy.NewDirectorySink(dir)
	} else {
		sink = proxy.NewSingleStreamSink(os.Stdout)
	}

	var hub *wsbroadcast.Hub
	if useBroadcast {
		hub = wsbroadcast.NewHub()
		defer hub.Close()
		sink = proxy.WithBroadcast(sink, hub)

		if bcastAddr == "" {
			bcastAddr = ":8765"
		}
		mux := http.NewServeMux()
		mux.Handle("/tail", hub)
		server := &http.Server{Addr: bcastAddr, Handler: mux}
		go func() {
			log.Info("broadcast server listening", "addr", bcastAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("broadcast server failed", "error", err)
			}
		}()
	}

	var auditLog *audit.Logger
	if cfg.AuditEnabled {
		auditLog, err = audit.NewLogger(cfg)
		if err != nil {
			log.Warn("audit logger unavailable, proceeding without a session audit trail", "error", err)
		} else {
			defer auditLog.Close()
		}
	}

	p := proxy.New(upstream, sink, conns, auditLog)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	log.Info("vnclog listening", "addr", addr, "upstream", upstream.String())

	serveErr := make(chan error, 1)
	go func() { serveErr <- p.Serve(ln) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case <-sigChan:
		log.Info("shutting down vnclog")
		return ln.Close()
	}
}
