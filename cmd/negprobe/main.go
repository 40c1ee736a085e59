// negprobe is a CLI tool for exercising content negotiation and guarded
// routes of a reqmatch server. Each command performs a single operation,
// making it composable for scripts.
//
// Commands:
//
//	negprobe probe -url URL [-path /articles] [-accept RANGE]... [-token T] [-chrome]
//	negprobe parse MEDIA-TYPE...
//	negprobe token -secret S -sub SUBJECT [-roles editor,admin] [-ttl 1h]
//	negprobe create -url URL -token T -title TITLE [-body TEXT] [-tags a,b] [-content-type CT]
//
// Examples:
//
//	negprobe probe -url http://localhost:8080 -path /articles
//	negprobe probe -url https://example.com -path / -chrome -accept text/html -accept application/json
//	TOKEN=$(negprobe token -secret "$AUTH_JWT_SECRET" -sub ada -roles editor)
//	negprobe create -url http://localhost:8080 -token "$TOKEN" -title "Hello"
package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"reqmatch/internal/mediatype"
	"reqmatch/internal/security"
	"reqmatch/internal/transport"
)

// Global flags (apply to all commands)
var (
	baseURL string
	quiet   bool
	noColor bool
	verbose bool
)

// Output colors. color honours NO_COLOR and non-terminal stdout on its own.
var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func disableColors() {
	color.NoColor = true
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "probe":
		runProbe(args)
	case "parse":
		runParse(args)
	case "token":
		runToken(args)
	case "create":
		runCreate(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `negprobe - content negotiation probe for reqmatch servers

Usage:
  negprobe <command> [options]

Commands:
  probe     Send GET requests with a matrix of Accept headers
  parse     Parse media types locally and print their canonical form
  token     Mint an HS256 bearer token for a subject and roles
  create    POST an article, exercising the auth and content-type guards

Examples:
  # Probe the article list with the default Accept matrix
  negprobe probe -url http://localhost:8080 -path /articles

  # Probe a site behind a CDN with a browser TLS fingerprint
  negprobe probe -url https://example.com -path / -chrome -accept text/html

  # Mint a token and create an article
  TOKEN=$(negprobe token -secret "$AUTH_JWT_SECRET" -sub ada -roles editor)
  negprobe create -url http://localhost:8080 -token "$TOKEN" -title "Hello"

  # Send the wrong content type to see the 415 guard
  negprobe create -url http://localhost:8080 -token "$TOKEN" -title x -content-type text/plain

Run 'negprobe <command> -h' for command-specific options.
`)
}

// =============================================================================
// HTTP CLIENT
// =============================================================================

// newClient returns the client used by probe and create. With chrome set the
// Chrome TLS fingerprint transport is used.
func newClient(timeout time.Duration, chrome, insecure bool) *http.Client {
	if chrome {
		c := transport.NewClient(transport.Options{Timeout: timeout, InsecureSkipVerify: insecure})
		c.Timeout = timeout
		return c
	}

	c := &http.Client{Timeout: timeout}
	if insecure {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		c.Transport = t
	}
	return c
}

// =============================================================================
// PROBE COMMAND
// =============================================================================

func runProbe(args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	fs.StringVar(&baseURL, "url", "http://localhost:8080", "Server base URL")
	var path, token string
	var accepts acceptList
	var chrome, insecure bool
	var timeout time.Duration
	fs.StringVar(&path, "path", "/articles", "Path to probe")
	fs.Var(&accepts, "accept", "Accept header to send (repeatable, replaces the default matrix)")
	fs.StringVar(&token, "token", "", "Bearer token")
	fs.BoolVar(&chrome, "chrome", false, "Use a Chrome TLS fingerprint")
	fs.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output the result table")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show response bodies")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: negprobe probe [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if noColor {
		disableColors()
	}

	if len(accepts) == 0 {
		accepts = defaultAccepts
	}

	client := newClient(timeout, chrome, insecure)
	target := joinURL(baseURL, path)
	printInfo("Probing %s with %d Accept headers", target, len(accepts))

	mismatches := 0
	for _, accept := range accepts {
		res, err := probe(context.Background(), client, target, accept, token)
		if err != nil {
			fatal("%v", err)
		}
		printProbeResult(res)
		if !res.Acceptable && res.Status < 400 {
			mismatches++
		}
	}

	if mismatches > 0 {
		printWarning("%d response(s) served a type the Accept header does not cover", mismatches)
	} else {
		printSuccess("All successful responses match their Accept header")
	}
}

func printProbeResult(res *probeResult) {
	accept := res.Accept
	if accept == "" {
		accept = "(none)"
	}

	status := green(res.Status)
	if res.Status >= 400 {
		status = red(res.Status)
	}

	served := res.ContentType
	switch {
	case served == "":
		served = "(no content type)"
	case res.ParseErr != nil:
		served += " " + red("(malformed)")
	default:
		served = res.MediaType.String()
	}

	mark := green("✓")
	if !res.Acceptable {
		mark = yellow("≠")
	}

	line := fmt.Sprintf("%s  %-36s → %s %s", status, accept, served, mark)
	if res.ErrorCode != "" {
		line += " " + red(res.ErrorCode)
	}
	if !quiet {
		line += " " + gray(fmt.Sprintf("(%v)", res.Duration.Round(time.Millisecond)))
	}
	fmt.Println(line)

	if verbose {
		printBody(res.MediaType, res.Body, "    ")
	}
}

// =============================================================================
// PARSE COMMAND
// =============================================================================

func runParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: negprobe parse MEDIA-TYPE...\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if noColor {
		disableColors()
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}

	failed := false
	for _, raw := range fs.Args() {
		mt, err := mediatype.Parse(raw)
		if err != nil {
			printError("%q: %v", raw, err)
			failed = true
			continue
		}
		fmt.Println(bold(mt.String()))
		fmt.Printf("  essence:  %s\n", mt.Essence())
		fmt.Printf("  quality:  %g\n", mt.QualityFactor())
		if mt.IsWildcardType() || mt.IsWildcardSubtype() {
			fmt.Printf("  %s\n", cyan("wildcard range"))
		}
		for _, p := range mt.Params() {
			fmt.Printf("  %s = %s\n", gray(p.Name), p.Value)
		}
	}
	if failed {
		os.Exit(1)
	}
}

// =============================================================================
// TOKEN COMMAND
// =============================================================================

func runToken(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	var secret, subject, roles, email, username, issuer, audience string
	var ttl time.Duration
	fs.StringVar(&secret, "secret", os.Getenv("AUTH_JWT_SECRET"), "HMAC signing secret (default $AUTH_JWT_SECRET)")
	fs.StringVar(&subject, "sub", "", "Token subject (required)")
	fs.StringVar(&roles, "roles", "", "Comma-separated roles")
	fs.StringVar(&email, "email", "", "Email claim")
	fs.StringVar(&username, "username", "", "preferred_username claim")
	fs.StringVar(&issuer, "issuer", os.Getenv("AUTH_JWT_ISSUER"), "iss claim (default $AUTH_JWT_ISSUER)")
	fs.StringVar(&audience, "audience", os.Getenv("AUTH_JWT_AUDIENCE"), "aud claim (default $AUTH_JWT_AUDIENCE)")
	fs.DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: negprobe token -secret S -sub SUBJECT [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if secret == "" || subject == "" {
		fs.Usage()
		os.Exit(1)
	}

	token, err := mintToken(security.JWTConfig{
		Secret:   []byte(secret),
		Issuer:   issuer,
		Audience: audience,
	}, subject, splitList(roles), email, username, ttl)
	if err != nil {
		fatal("Failed to mint token: %v", err)
	}
	fmt.Println(token)
}

// mintToken signs a token the server's JWT authenticator will accept.
func mintToken(cfg security.JWTConfig, subject string, roles []string, email, username string, ttl time.Duration) (string, error) {
	auth, err := security.NewJWTAuthenticator(cfg)
	if err != nil {
		return "", err
	}

	attrs := map[string]string{}
	if email != "" {
		attrs[security.AttrEmail] = email
	}
	if username != "" {
		attrs[security.AttrUsername] = username
	}

	return auth.Issue(&security.User{
		Subject:    subject,
		Roles:      security.NewRoles(roles...),
		Attributes: attrs,
	}, ttl)
}

// =============================================================================
// CREATE COMMAND
// =============================================================================

func runCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	fs.StringVar(&baseURL, "url", "http://localhost:8080", "Server base URL")
	var token, title, body, tags, contentType, accept string
	var chrome, insecure bool
	fs.StringVar(&token, "token", "", "Bearer token")
	fs.StringVar(&title, "title", "", "Article title (required)")
	fs.StringVar(&body, "body", "", "Article body")
	fs.StringVar(&tags, "tags", "", "Comma-separated tags")
	fs.StringVar(&contentType, "content-type", "application/json", "Content-Type to send")
	fs.StringVar(&accept, "accept", "application/json", "Accept header to send")
	fs.BoolVar(&chrome, "chrome", false, "Use a Chrome TLS fingerprint")
	fs.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output the article id")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: negprobe create -title TITLE [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if noColor {
		disableColors()
	}
	if title == "" {
		fs.Usage()
		os.Exit(1)
	}

	reqBody := map[string]any{
		"title": title,
		"body":  body,
		"tags":  splitList(tags),
	}
	reqJSON, err := json.MarshalIndent(reqBody, "", "  ")
	if err != nil {
		fatal("Failed to encode request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, joinURL(baseURL, "/articles"), bytes.NewReader(reqJSON))
	if err != nil {
		fatal("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", accept)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if !quiet {
		fmt.Printf("\n%s %s %s\n", yellow("▶ REQUEST"), bold("POST /articles"), gray("("+contentType+")"))
		if verbose {
			printJSON(reqJSON, "  ")
		}
	}

	start := time.Now()
	resp, err := newClient(30*time.Second, chrome, insecure).Do(req)
	duration := time.Since(start)
	if err != nil {
		fatal("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		fatal("Failed to read response: %v", err)
	}

	if !quiet {
		status := green(resp.StatusCode)
		if resp.StatusCode >= 400 {
			status = red(resp.StatusCode)
		}
		fmt.Printf("\n%s %s (%v)\n", cyan("◀ RESPONSE"), status, duration)
		printJSON(respBody, "  ")
	}

	if resp.StatusCode != http.StatusCreated {
		fatal("HTTP %d %s", resp.StatusCode, errorCode(respBody))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		fatal("Failed to parse response: %v", err)
	}
	if quiet {
		fmt.Println(created.ID)
		return
	}
	printSuccess("Article created")
	fmt.Printf("  ID:       %s\n", cyan(created.ID))
	fmt.Printf("  Location: %s\n", resp.Header.Get("Location"))
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

// printBody prints JSON bodies indented and anything else verbatim.
func printBody(mt mediatype.MediaType, body []byte, prefix string) {
	if mt.Subtype() == "json" || strings.HasSuffix(mt.Subtype(), "+json") {
		printJSON(body, prefix)
		return
	}
	for _, line := range strings.Split(strings.TrimRight(string(body), "\n"), "\n") {
		fmt.Printf("%s%s\n", prefix, gray(line))
	}
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], prefix+"  "+gray(fmt.Sprintf("(%d more lines, use -v for full output)", len(lines)-25)))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(prefix + output)
}

func printSuccess(format string, args ...any) {
	if !quiet {
		fmt.Println(green("✓ " + fmt.Sprintf(format, args...)))
	}
}

func printError(format string, args ...any) {
	fmt.Println(red("✗ " + fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Println(yellow("⚠ " + fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Println(gray("→ " + fmt.Sprintf(format, args...)))
	}
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fatal(format string, args ...any) {
	fmt.Fprintln(os.Stderr, red("✗ "+fmt.Sprintf(format, args...)))
	os.Exit(1)
}
