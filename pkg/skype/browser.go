package skype

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/tinyland-inc/skybridge/pkg/config"
	"github.com/tinyland-inc/skybridge/pkg/logger"
)

var errBrowserStart = errors.New("skype: starting browser")

// Acquirer produces session credentials, typically by driving a login.
type Acquirer interface {
	Acquire(ctx context.Context) (*Credentials, error)
}

// AcquirerFunc adapts a function to the Acquirer interface.
type AcquirerFunc func(ctx context.Context) (*Credentials, error)

func (f AcquirerFunc) Acquire(ctx context.Context) (*Credentials, error) { return f(ctx) }

const (
	// loginSettleDelay gives the login page time to finish its client-side
	// bootstrap before the form is touched.
	loginSettleDelay = 4 * time.Second
	// federatedStepDelay separates the identifier and password submissions
	// of the Microsoft account flow.
	federatedStepDelay = 2 * time.Second
	screenshotTimeout  = 5 * time.Second
)

// BrowserAcquirer logs in through a real Chrome instance and captures the
// credentials from the web client's outgoing requests.
type BrowserAcquirer struct {
	cfg         config.SkypeConfig
	timeout     time.Duration
	settleDelay time.Duration
	stepDelay   time.Duration
	threshold   int
}

func NewBrowserAcquirer(cfg config.SkypeConfig) *BrowserAcquirer {
	timeout := cfg.LoginTimeoutDuration()
	if timeout <= 0 {
		timeout = 50 * time.Second
	}
	return &BrowserAcquirer{
		cfg:         cfg,
		timeout:     timeout,
		settleDelay: loginSettleDelay,
		stepDelay:   federatedStepDelay,
		threshold:   DefaultCaptureThreshold,
	}
}

func (a *BrowserAcquirer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("headless", a.cfg.Headless),
		chromedp.WindowSize(1280, 900),
	)
	if a.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(a.cfg.ChromePath))
	}
	return opts
}

// Acquire runs one login attempt. The browser is torn down before it
// returns, on success and on failure alike.
func (a *BrowserAcquirer) Acquire(ctx context.Context) (*Credentials, error) {
	watchdog := time.NewTimer(a.timeout)
	defer watchdog.Stop()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, a.allocatorOptions()...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	capture := NewCapture(a.threshold)
	chromedp.ListenTarget(browserCtx, func(ev any) {
		e, ok := ev.(*network.EventRequestWillBeSent)
		if !ok || e.Request == nil {
			return
		}
		headers := flattenHeaders(e.Request.Headers)
		if capture.Observe(e.Request.Method, headers) {
			logger.InfoCF("login", "Session credentials captured", map[string]any{
				"url":       e.Request.URL,
				"successes": capture.Successes(),
			})
		}
	})

	loginURL := a.cfg.EffectiveLoginURL()
	stepsDone := make(chan error, 1)
	go func() {
		// The interception hook must be live before any login step runs.
		if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
			stepsDone <- fmt.Errorf("%w: %w", errBrowserStart, err)
			return
		}
		logger.InfoCF("login", "Opening login page", map[string]any{
			"microsoft": a.cfg.Microsoft,
		})
		stepsDone <- chromedp.Run(browserCtx, a.loginActions(loginURL)...)
	}()

	return awaitLogin(ctx, capture, stepsDone, watchdog.C, func() {
		logger.ErrorCF("login", "Login did not complete in time", map[string]any{
			"timeout":    a.timeout.String(),
			"screenshot": a.cfg.ScreenshotPath,
		})
		a.saveScreenshot(browserCtx)
	})
}

// awaitLogin waits for capture to complete. A failed login step keeps
// waiting; a failed browser start does not. When expired fires, onTimeout
// runs and ErrAcquisitionTimeout is returned. A completed capture takes
// precedence over any event arriving with it.
func awaitLogin(
	ctx context.Context,
	capture *Capture,
	steps <-chan error,
	expired <-chan time.Time,
	onTimeout func(),
) (*Credentials, error) {
	for {
		if creds, ok := capture.Credentials(); ok {
			return &creds, nil
		}

		select {
		case <-capture.Ready():
		case err := <-steps:
			steps = nil
			switch {
			case errors.Is(err, errBrowserStart):
				if creds, ok := capture.Credentials(); ok {
					return &creds, nil
				}
				return nil, err
			case err != nil:
				logger.WarnCF("login", "Login steps failed, waiting for watchdog", map[string]any{
					"error": err.Error(),
				})
			default:
				logger.DebugC("login", "Login form submitted")
			}
		case <-expired:
			if creds, ok := capture.Credentials(); ok {
				return &creds, nil
			}
			if onTimeout != nil {
				onTimeout()
			}
			return nil, ErrAcquisitionTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// loginActions fills and submits the login form. Field lookup is
// positional on the federated page and by id on the native one; both use
// fixed delays rather than waiting for page events.
func (a *BrowserAcquirer) loginActions(loginURL string) []chromedp.Action {
	actions := []chromedp.Action{
		chromedp.Navigate(loginURL),
		chromedp.Sleep(a.settleDelay),
	}

	if a.cfg.Microsoft {
		const (
			identifierInput = `document.getElementsByTagName('input')[0]`
			passwordInput   = `document.getElementsByTagName('input')[2]`
			loginForm       = `document.getElementsByTagName('form')[0]`
		)
		return append(actions,
			chromedp.SetValue(identifierInput, a.cfg.Username, chromedp.ByJSPath),
			chromedp.SetValue(passwordInput, a.cfg.Password, chromedp.ByJSPath),
			chromedp.Submit(loginForm, chromedp.ByJSPath),
			chromedp.Sleep(a.stepDelay),
			chromedp.SetValue(passwordInput, a.cfg.Password, chromedp.ByJSPath),
			chromedp.Submit(loginForm, chromedp.ByJSPath),
		)
	}

	return append(actions,
		chromedp.SetValue("#username", a.cfg.Username, chromedp.ByID),
		chromedp.SetValue("#password", a.cfg.Password, chromedp.ByID),
		chromedp.Click("#signIn", chromedp.ByID),
	)
}

func (a *BrowserAcquirer) saveScreenshot(browserCtx context.Context) {
	if a.cfg.ScreenshotPath == "" {
		return
	}
	ctx, cancel := context.WithTimeout(browserCtx, screenshotTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		logger.WarnCF("login", "Screenshot failed", map[string]any{"error": err.Error()})
		return
	}
	if err := os.WriteFile(a.cfg.ScreenshotPath, buf, 0o644); err != nil {
		logger.WarnCF("login", "Writing screenshot failed", map[string]any{"error": err.Error()})
	}
}

func flattenHeaders(headers network.Headers) map[string]string {
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		switch v := value.(type) {
		case string:
			out[name] = v
		default:
			out[name] = fmt.Sprint(v)
		}
	}
	return out
}
