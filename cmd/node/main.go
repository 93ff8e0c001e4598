// cmd/node is the CLI entrypoint for a single peer: parses flags, builds a
// node, starts its UDP listener, optionally joins a bootstrap peer, and
// serves the HTTP introspection API.
//
// Grounded on the teacher's main.go (-genesis/-port/-http/-bootstrap flag
// set, the same genesis-vs-bootstrap branch, the same "select {}" block
// forever at the end).
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/kutluhann/kademlia-node/api"
	"github.com/kutluhann/kademlia-node/config"
	"github.com/kutluhann/kademlia-node/node"
)

func main() {
	isGenesis := flag.Bool("genesis", false, "Start as a Genesis Node (no bootstrap)")
	port := flag.Int("port", 8080, "UDP port to listen on")
	httpPort := flag.Int("http", 8000, "HTTP API port for client requests")
	bootstrapAddr := flag.String("bootstrap", "", "Bootstrap Node IP:Port (e.g. 127.0.0.1:8080)")
	flag.Parse()

	fmt.Printf("Starting node on UDP port %d...\n", *port)

	cfg := config.Init()

	n, err := node.New(cfg, fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("FATAL: failed to build node: %v", err)
	}
	fmt.Printf("Node initialized with ID: %s\n", n.Self.ID.String())

	n.Listen()
	node.WaitGreeting()

	httpServer := api.NewHTTPServer(n, *httpPort)
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()
	fmt.Printf("HTTP API listening on port %d\n", *httpPort)

	if *isGenesis {
		fmt.Println("--> Running as GENESIS Node. Waiting for connections...")
	} else {
		if *bootstrapAddr == "" {
			log.Fatal("FATAL: Bootstrap address required for non-genesis nodes. Use -bootstrap flag (e.g., -bootstrap 127.0.0.1:8080)")
		}
		fmt.Printf("--> Bootstrapping... Connecting to %s\n", *bootstrapAddr)
		if err := n.Join(*bootstrapAddr); err != nil {
			log.Fatalf("FATAL: Failed to join network: %v\n", err)
		}
		fmt.Println("✓ Successfully joined the network!")
	}

	select {}
}
