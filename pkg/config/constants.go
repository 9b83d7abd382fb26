package config

import "time"

// Version is the current version of axss
const Version = "v1.0.0"

// Author is the author of the tool
const Author = "@lcalzada-xor"

// Default Values
const (
	DefaultConcurrency = 1
	DefaultTimeout     = 10 * time.Second
	DefaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultRetries     = 2
)

// Crawl defaults
const (
	DefaultMaxDepth   = 2
	DefaultMaxPages   = 50
	DefaultCrawlDelay = 500 * time.Millisecond
)

// Scan pacing
const (
	DefaultURLDelay     = 300 * time.Millisecond
	DefaultPayloadDelay = 200 * time.Millisecond
	DefaultStoredDelay  = 1 * time.Second
	DefaultSnippetLen   = 200
)

// LogoutPatterns are path fragments that end the session when requested.
var LogoutPatterns = []string{
	"/logout",
	"/signout",
	"/sign-out",
	"/logoff",
	"/disconnect",
	"/exit",
}

// StaticExtensions are never crawled or scanned.
var StaticExtensions = []string{
	".css", ".js", ".jpg", ".jpeg", ".png", ".gif", ".svg",
	".ico", ".woff", ".woff2", ".ttf", ".eot", ".pdf", ".zip",
	".mp4", ".mp3", ".avi", ".mov", ".wmv",
}
