package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/netinfo-bridge/netinfo/internal/logging"
	"github.com/netinfo-bridge/netinfo/internal/tui/app"
	"github.com/netinfo-bridge/netinfo/internal/tui/client"
)

func main() {
	wsURL := flag.String("url", "ws://127.0.0.1:8080/ws", "WebSocket URL of netinfod")
	token := flag.String("token", "", "Auth token (if netinfod requires it)")
	history := flag.Int("history", 50, "Number of publishes kept in the change log")
	logFile := flag.String("log", "", "Write debug logs to this file")
	flag.Parse()

	log := zap.NewNop().Sugar()
	if *logFile != "" {
		l, err := logging.NewFile("debug", *logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log = l
		defer log.Sync()
	}

	ws := client.NewWSClient(*wsURL, *token, logging.Named(log, "ws"))
	defer ws.Close()
	httpClient := client.NewHTTPClient(deriveHTTPBase(*wsURL), *token)

	p := tea.NewProgram(app.New(ws, httpClient, *history), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deriveHTTPBase converts ws://host:port/ws → http://host:port
func deriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "http://127.0.0.1:8080"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
