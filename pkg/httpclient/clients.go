package httpclient

import (
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/inspectra/pkg/auth"
	"golang.org/x/net/publicsuffix"
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultAPIRoot = "http://localhost:5000"
	DefaultPrefix  = "/api"
)

// Options configures the pair of clients built by NewClients.
type Options struct {
	APIRoot         string
	Prefix          string
	Timeout         time.Duration
	WithCredentials bool
	Headers         map[string]string
	Jar             http.CookieJar
	Transport       http.RoundTripper
	TransportLogger resty.Logger
}

// Clients is the process-wide pair of dispatchers. Scoped resolves paths
// under <APIRoot><Prefix>; Direct resolves them under <APIRoot>.
type Clients struct {
	Scoped *RestyClient
	Direct *RestyClient
	Jar    http.CookieJar
}

// NewClients builds both instances from the same base settings and one
// Interceptor, so token injection and 401 handling cannot drift between them.
func NewClients(opts Options, creds auth.Provider, log Logger) *Clients {
	opts = opts.withDefaults()
	if opts.WithCredentials && opts.Jar == nil {
		opts.Jar = NewCookieJar()
	}

	ic := NewInterceptor(creds, log)
	base := Config{
		Timeout:         opts.Timeout,
		Headers:         opts.Headers,
		WithCredentials: opts.WithCredentials,
		Jar:             opts.Jar,
		Transport:       opts.Transport,
		TransportLogger: opts.TransportLogger,
	}

	scoped := base
	scoped.BaseURL = JoinURL(opts.APIRoot, opts.Prefix)
	direct := base
	direct.BaseURL = opts.APIRoot

	return &Clients{
		Scoped: New(scoped, ic),
		Direct: New(direct, ic),
		Jar:    opts.Jar,
	}
}

func (o Options) withDefaults() Options {
	o.APIRoot = strings.TrimRight(strings.TrimSpace(o.APIRoot), "/")
	if o.APIRoot == "" {
		o.APIRoot = DefaultAPIRoot
	}
	if strings.TrimSpace(o.Prefix) == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// NewCookieJar returns a jar using the public suffix list, as a browser would.
func NewCookieJar() http.CookieJar {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// JoinURL appends path to root with exactly one slash between them.
func JoinURL(root, path string) string {
	root = strings.TrimRight(root, "/")
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return root
	}
	return root + "/" + path
}
