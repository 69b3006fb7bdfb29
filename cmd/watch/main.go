// Package main provides a CLI subscriber that tails the notifications
// of one restaurant, for development and operations.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/SeveN7Igor7/pedefacil/client"
	"github.com/SeveN7Igor7/pedefacil/internal/logger"
	"github.com/SeveN7Igor7/pedefacil/internal/protocol"
)

func main() {
	addr := flag.String("addr", "ws://localhost:3001/ws", "websocket address of the realtime service")
	restaurant := flag.Int("restaurant", 0, "restaurant ID to watch")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if *restaurant <= 0 {
		fmt.Fprintln(os.Stderr, "usage: watch -restaurant <id> [-addr ws://host:port/ws]")
		os.Exit(2)
	}

	logger.Init(*logLevel)

	c := client.New(*addr, *restaurant, client.Options{
		OnOrder:  printEnvelope,
		OnChat:   printEnvelope,
		OnCustom: printEnvelope,
		OnConnectionChange: func(connected bool) {
			if connected {
				fmt.Printf("%s [connected]\n", time.Now().Format("15:04:05"))
			} else {
				fmt.Printf("%s [disconnected]\n", time.Now().Format("15:04:05"))
			}
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	fmt.Printf("Watching restaurant %d on %s (Ctrl+C to quit)\n", *restaurant, *addr)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt
	fmt.Println("\nBye.")
}

func printEnvelope(env *protocol.Envelope) {
	var pretty json.RawMessage = env.Data
	if indented, err := json.MarshalIndent(pretty, "  ", "  "); err == nil {
		pretty = indented
	}
	fmt.Printf("%s %s\n  %s\n", env.Timestamp, env.Type, pretty)
}
