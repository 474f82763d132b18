package login

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tinyland-inc/skybridge/cmd/skybridge/internal"
	"github.com/tinyland-inc/skybridge/pkg/logger"
	"github.com/tinyland-inc/skybridge/pkg/skype"
)

func loginCmd(ctx context.Context, debug, showBrowser bool) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	if showBrowser {
		cfg.Skype.Headless = false
	}

	fmt.Printf("%s Logging in as %s (timeout %s)\n", internal.Logo, cfg.Skype.Username, cfg.Skype.LoginTimeoutDuration())
	creds, err := skype.NewBrowserAcquirer(cfg.Skype).Acquire(ctx)
	if err != nil {
		if cfg.Skype.ScreenshotPath != "" {
			fmt.Printf("✗ Login failed, see %s\n", cfg.Skype.ScreenshotPath)
		}
		return err
	}

	printCredentials(os.Stdout, creds)
	return nil
}

// printCredentials lists what was captured without revealing values.
func printCredentials(w io.Writer, creds *skype.Credentials) {
	names := make([]string, 0, len(creds.Headers))
	for name := range creds.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "✓ Session captured")
	fmt.Fprintf(w, "  Headers: %d\n", len(names))
	for _, name := range names {
		fmt.Fprintf(w, "    • %s\n", name)
	}
	if creds.SkypeToken != "" {
		fmt.Fprintln(w, "  Skype token: present")
	} else {
		fmt.Fprintln(w, "  Skype token: missing")
	}
}
