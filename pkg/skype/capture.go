package skype

import (
	"maps"
	"net/http"
	"strings"
	"sync"
)

const (
	headerRegistrationToken = "RegistrationToken"
	headerSkypeToken        = "X-Skypetoken"
	headerUserAgent         = "User-Agent"
	headerClientInfo        = "ClientInfo"

	// Signature of the production web client; the gateway rejects requests
	// that identify as an automation browser.
	webClientUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:49.0) Gecko/20100101 Firefox/49.0"
	webClientInfo      = "os=Linux; osVer=U; proc=Linux x86_64; lcid=en-us; deviceType=1; country=n/a; " +
		"clientName=skype.com; clientVer=908/1.62.0.45//skype.com"

	// DefaultCaptureThreshold is the number of distinct token types that
	// must be captured before the set is considered complete.
	DefaultCaptureThreshold = 2

	tokenTypes = 2
)

// Capture watches the requests a logging-in web client makes and extracts
// the session credentials from them. It fires exactly once, no matter how
// many retried requests carry the same tokens afterwards.
type Capture struct {
	mu        sync.Mutex
	threshold int
	headers   map[string]string
	token     string
	haveToken bool
	done      bool
	creds     Credentials
	ready     chan struct{}
}

func NewCapture(threshold int) *Capture {
	if threshold <= 0 {
		threshold = DefaultCaptureThreshold
	}
	threshold = min(threshold, tokenTypes)
	return &Capture{
		threshold: threshold,
		ready:     make(chan struct{}),
	}
}

// Observe inspects one intercepted request. Repeated observations of a
// token type refresh its value but count once. It returns true only for the
// call that completed the capture, which needs both the RegistrationToken
// header set and the X-Skypetoken.
func (c *Capture) Observe(method string, headers map[string]string) bool {
	if !strings.EqualFold(method, http.MethodPost) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return false
	}

	for name, value := range headers {
		switch {
		case strings.EqualFold(name, headerRegistrationToken):
			c.headers = make(map[string]string, len(headers))
			maps.Copy(c.headers, headers)
		case strings.EqualFold(name, headerSkypeToken):
			c.token = value
			c.haveToken = true
		}
	}

	if c.successesLocked() < c.threshold || c.headers == nil || !c.haveToken {
		return false
	}

	frozen := make(map[string]string, len(c.headers)+2)
	for name, value := range c.headers {
		if strings.EqualFold(name, headerUserAgent) || strings.EqualFold(name, headerClientInfo) {
			continue
		}
		frozen[name] = value
	}
	frozen[headerUserAgent] = webClientUserAgent
	frozen[headerClientInfo] = webClientInfo

	c.creds = Credentials{Headers: frozen, SkypeToken: c.token}
	c.done = true
	close(c.ready)
	return true
}

// Ready is closed once the capture completes.
func (c *Capture) Ready() <-chan struct{} {
	return c.ready
}

// Credentials returns the frozen credential set and whether the capture
// has completed.
func (c *Capture) Credentials() (Credentials, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.done {
		return Credentials{}, false
	}
	headers := make(map[string]string, len(c.creds.Headers))
	maps.Copy(headers, c.creds.Headers)
	return Credentials{Headers: headers, SkypeToken: c.creds.SkypeToken}, true
}

// Successes returns the number of distinct token types captured so far.
func (c *Capture) Successes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.successesLocked()
}

func (c *Capture) successesLocked() int {
	n := 0
	if c.headers != nil {
		n++
	}
	if c.haveToken {
		n++
	}
	return n
}
