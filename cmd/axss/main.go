package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lcalzada-xor/axss/pkg/config"
	"github.com/lcalzada-xor/axss/pkg/runner"
	"golang.org/x/term"
)

func main() {
	opts := runner.DefaultOptions()
	var configPath string

	// Define flags with both short and long names
	flag.StringVar(&opts.URL, "u", "", "Target URL")
	flag.StringVar(&opts.URL, "url", "", "Target URL")

	flag.StringVar(&opts.ListFile, "l", "", "File with target URLs, one per line")
	flag.StringVar(&opts.ListFile, "list", "", "File with target URLs, one per line")

	flag.BoolVar(&opts.Crawl, "crawl", false, "Crawl the target before scanning")
	flag.IntVar(&opts.MaxDepth, "max-depth", opts.MaxDepth, "Maximum crawl depth")
	flag.IntVar(&opts.MaxPages, "max-pages", opts.MaxPages, "Maximum pages to crawl")

	flag.BoolVar(&opts.Advanced, "advanced", false, "Use the advanced payload set")
	flag.StringVar(&opts.PayloadsFile, "p", "", "File with custom payloads")
	flag.StringVar(&opts.PayloadsFile, "payloads", "", "File with custom payloads")

	flag.IntVar(&opts.Concurrency, "c", opts.Concurrency, "Number of URLs scanned in parallel")
	flag.IntVar(&opts.Concurrency, "concurrency", opts.Concurrency, "Number of URLs scanned in parallel")

	flag.DurationVar(&opts.Timeout, "t", opts.Timeout, "Request timeout")
	flag.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Request timeout")

	flag.Float64Var(&opts.RateLimit, "rate-limit", 0, "Maximum requests per second per host (0 = unlimited)")

	flag.StringVar(&opts.Proxy, "x", "", "Proxy URL (e.g. http://127.0.0.1:8080)")
	flag.StringVar(&opts.Proxy, "proxy", "", "Proxy URL (e.g. http://127.0.0.1:8080)")

	flag.StringVar(&opts.UserAgent, "user-agent", opts.UserAgent, "User-Agent header")

	var headers headerFlags
	flag.Var(&headers, "H", "Custom header (e.g. 'X-Api-Key: 123')")
	flag.Var(&headers, "header", "Custom header (e.g. 'X-Api-Key: 123')")

	flag.StringVar(&opts.Cookie, "cookie", "", "Session cookies (e.g. 'session=abc; theme=dark')")

	flag.StringVar(&opts.LoginURL, "login-url", "", "Login page for credential authentication")
	flag.StringVar(&opts.Username, "username", "", "Login username")
	flag.StringVar(&opts.Password, "password", "", "Login password (prompted when empty)")
	flag.BoolVar(&opts.BrowserLogin, "browser-login", false, "Log in manually in a browser window")

	flag.StringVar(&opts.OutputFormat, "o", opts.OutputFormat, "Output format: human, json, url")
	flag.StringVar(&opts.OutputFormat, "output", opts.OutputFormat, "Output format: human, json, url")
	flag.StringVar(&opts.OutputFile, "output-file", "", "Also append findings to this file")
	flag.StringVar(&opts.ReportFile, "report", "", "Write a JSON report to this file")
	flag.StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	flag.StringVar(&configPath, "config", "", "YAML config file")

	flag.BoolVar(&opts.Verbose, "v", false, "Verbose output")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Verbose output")
	flag.BoolVar(&opts.VeryVerbose, "vv", false, "Very verbose output")
	flag.BoolVar(&opts.Silent, "s", false, "Silent mode (findings only)")
	flag.BoolVar(&opts.Silent, "silent", false, "Silent mode (findings only)")

	var version bool
	flag.BoolVar(&version, "version", false, "Print version and exit")

	flag.Usage = usage
	flag.Parse()

	if version {
		fmt.Println(config.Version)
		return
	}

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[-] %v\n", err)
			os.Exit(runner.ExitError)
		}
		opts.ApplyConfig(cfg, func(name string) bool { return explicit[name] })
	}
	opts.Headers = append(opts.Headers, headers...)

	if opts.LoginURL != "" && !opts.BrowserLogin && opts.Username != "" && opts.Password == "" {
		password, err := promptPassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "[-] %v\n", err)
			os.Exit(runner.ExitError)
		}
		opts.Password = password
	}

	os.Exit(runner.NewRunner(opts).Run(context.Background()))
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "[?] Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func usage() {
	h := `axss - authenticated XSS scanner ` + config.Version + `

USAGE:
  axss -u <url> [flags]

TARGETS:
  -u,  --url string          Target URL
  -l,  --list string         File with target URLs (# comments allowed)
       --crawl               Crawl the target before scanning
       --max-depth int       Maximum crawl depth (default 2)
       --max-pages int       Maximum pages to crawl (default 50)

SCANNING:
       --advanced            Use the advanced payload set
  -p,  --payloads string     File with custom payloads, one per line
  -c,  --concurrency int     URLs scanned in parallel (default 1)
  -t,  --timeout duration    Request timeout (default 10s)
       --rate-limit float    Maximum requests per second per host
  -x,  --proxy string        Proxy URL (e.g. http://127.0.0.1:8080)
  -H,  --header string       Custom header, repeatable
       --user-agent string   User-Agent header
       --cookie string       Session cookies (e.g. 'session=abc')

AUTHENTICATION:
       --login-url string    Login page for credential authentication
       --username string     Login username
       --password string     Login password (prompted when empty)
       --browser-login       Log in manually in a browser window

OUTPUT:
  -o,  --output string       Output format: human, json, url (default "human")
       --output-file string  Also append findings to this file
       --report string       Write a JSON report to this file
       --metrics-addr string Serve Prometheus metrics (e.g. :9090)
       --config string       YAML config file (flags take precedence)
  -v,  --verbose             Verbose output
       --vv                  Very verbose output
  -s,  --silent              Silent mode (findings only)

EXIT STATUS:
  0 no findings, 1 findings, 2 configuration or login error, 130 interrupted

EXAMPLES:
  axss -u "http://app.local/search?q=test"
  axss -u http://app.local/ --crawl --login-url http://app.local/login --username admin
  axss -l urls.txt --advanced -o json --report report.json
  axss -u http://app.local/ --crawl --browser-login
`
	fmt.Fprint(os.Stderr, h)
}

// headerFlags allows setting multiple headers
type headerFlags []string

func (h *headerFlags) String() string {
	return fmt.Sprint(*h)
}

func (h *headerFlags) Set(value string) error {
	*h = append(*h, value)
	return nil
}
