package syncclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// LoginTimeout bounds how long the callback listener waits for the browser
// redirect before giving up and releasing the socket.
const LoginTimeout = 5 * time.Minute

// ErrLoginTimeout is returned when no callback arrives within the timeout.
var ErrLoginTimeout = errors.New("login timed out waiting for browser callback")

// LoginOptions parameterizes a browser login flow.
type LoginOptions struct {
	// AuthURL is the web UI login page. The local callback address is
	// appended as a query parameter.
	AuthURL string
	// Timeout overrides LoginTimeout; zero uses the default.
	Timeout time.Duration
	// OpenBrowser receives the fully built URL to open. It runs after the
	// callback listener is bound, so the redirect target already exists.
	OpenBrowser func(url string) error
}

// Login runs the localhost callback flow: bind a loopback listener, hand the
// login URL to the browser, and wait for the web UI to redirect back with a
// token. The listener is always closed before Login returns, including on
// timeout and cancellation.
func Login(ctx context.Context, opts LoginOptions) (string, error) {
	if opts.AuthURL == "" {
		return "", fmt.Errorf("auth url is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = LoginTimeout
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("bind callback listener: %w", err)
	}
	defer listener.Close()

	callbackURL := fmt.Sprintf("http://%s/callback", listener.Addr().String())

	type callback struct {
		token string
		err   error
	}
	results := make(chan callback, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token parameter", http.StatusBadRequest)
			select {
			case results <- callback{err: errors.New("callback arrived without a token")}:
			default:
			}
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>Login complete. You can close this tab.</body></html>")
		select {
		case results <- callback{token: token}:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callback{err: err}:
			default:
			}
		}
	}()
	defer server.Close()

	loginURL, err := buildLoginURL(opts.AuthURL, callbackURL)
	if err != nil {
		return "", err
	}
	if opts.OpenBrowser != nil {
		if err := opts.OpenBrowser(loginURL); err != nil {
			return "", fmt.Errorf("open browser: %w", err)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-results:
		if result.err != nil {
			return "", fmt.Errorf("login callback: %w", result.err)
		}
		return result.token, nil
	case <-timer.C:
		return "", ErrLoginTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func buildLoginURL(authURL, callbackURL string) (string, error) {
	parsed, err := url.Parse(authURL)
	if err != nil {
		return "", fmt.Errorf("parse auth url: %w", err)
	}
	query := parsed.Query()
	query.Set("callback", callbackURL)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
