package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sibson/vncdotool/internal/config"
	"github.com/sibson/vncdotool/internal/logging"
	"github.com/sibson/vncdotool/internal/rfb"
	"github.com/sibson/vncdotool/internal/scriptrunner"
	"github.com/sibson/vncdotool/internal/secmem"
	"github.com/sibson/vncdotool/internal/vncclient"
	"github.com/sibson/vncdotool/pkg/vncapi"
)

var (
	cfgFile       string
	username      string
	password      string
	preferredAuth string
	shared        bool
	forceCaps     bool
	timeoutSecs   int
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "vncdo SERVER COMMAND...",
	Short: "Drive a VNC server from the command line",
	Long: `vncdo connects to an RFB/VNC server and plays back a command script:
key presses, mouse moves and clicks, screen captures, and screen
assertions. Commands are given as arguments; "-" reads them from stdin,
and an argument naming an existing file is replaced by that file's commands.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript(args[0], args[1:])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches /etc/vncdotool or .)")
	rootCmd.Flags().StringVarP(&username, "username", "u", "", "ARD username, if the server requires one")
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "VNC or ARD password")
	rootCmd.Flags().StringVar(&preferredAuth, "auth", "", "preferred auth type: none, vnc, ard")
	rootCmd.Flags().BoolVarP(&shared, "shared", "s", false, "request a shared (non-exclusive) session")
	rootCmd.Flags().BoolVar(&forceCaps, "force-caps", false, "promote shifted characters into explicit shift- chords")
	rootCmd.Flags().IntVarP(&timeoutSecs, "timeout", "t", 0, "timeout in seconds for the whole command script (0 keeps the one-hour default)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor implements the §6 exit-code contract: 0 success, 10
// protocol/timeout failure, non-zero (1) from anything else, including
// option-parse errors that cobra itself already reports.
func exitCodeFor(err error) int {
	switch err.(type) {
	case *rfb.TimeoutError, *rfb.ConnectionError, *rfb.ProtocolError, *rfb.AuthenticationError:
		return 10
	default:
		return 1
	}
}

func runScript(server string, tokens []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	log = logging.L("main")

	addr, err := rfb.ParseServerAddress(server)
	if err != nil {
		return fmt.Errorf("parsing server address %q: %w", server, err)
	}

	auth := cfg.PreferredAuth
	if preferredAuth != "" {
		auth = preferredAuth
	}
	isShared := cfg.Shared || shared

	var authCtx rfb.AuthContext
	if username != "" || cfg.Username != "" {
		u := username
		if u == "" {
			u = cfg.Username
		}
		authCtx.Username = secmem.NewSecureString(u)
		defer authCtx.Username.Zero()
	}
	pw := password
	if pw == "" {
		pw = cfg.Password
	}
	if pw == "" {
		pw = os.Getenv("VNCDOTOOL_PASSWORD")
	}
	if pw != "" {
		authCtx.Password = secmem.NewSecureString(pw)
		defer authCtx.Password.Zero()
	}

	opts := rfb.Options{Auth: authCtx, Shared: isShared, AuthPreference: parseAuthPreference(auth)}

	log.Info("connecting", "server", addr.String())
	facade, err := vncapi.Connect(addr, opts)
	if err != nil {
		return err
	}
	defer facade.Close()

	if timeoutSecs > 0 {
		facade.SetTimeout(time.Duration(timeoutSecs) * time.Second)
	}

	delay := interCommandDelay(cfg)
	useForceCaps := cfg.ForceCaps || forceCaps
	script := strings.Join(tokens, " ")

	return facade.Do(func(client *vncclient.Client) error {
		client.SetForceCaps(useForceCaps)
		if err := scriptrunner.Run(client, script, delay); err != nil {
			return err
		}
		return client.Do()
	})
}

// parseAuthPreference maps the --auth/preferred_auth string to an
// rfb.AuthType; an unrecognized or empty value means no preference, and
// the session falls back to its default strongest-first order.
func parseAuthPreference(name string) rfb.AuthType {
	switch strings.ToLower(name) {
	case "none":
		return rfb.AuthNone
	case "vnc":
		return rfb.AuthVNC
	case "ard":
		return rfb.AuthARD
	default:
		return rfb.AuthInvalid
	}
}

func interCommandDelay(cfg *config.Config) time.Duration {
	ms := cfg.InterCommandDelayMS
	if v := os.Getenv("VNCDOTOOL_DELAY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			ms = parsed
		}
	}
	if ms <= 0 {
		ms = 10
	}
	return time.Duration(ms) * time.Millisecond
}
