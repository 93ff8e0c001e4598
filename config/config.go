// Package config is a simple in-memory singleton for runtime
// configuration (private key, derived identity, data directory, tunable
// parameters), loaded from the environment via godotenv.
//
// Grounded on the teacher's config/config.go (sync.Once singleton,
// godotenv.Load on Init, Get/Set accessor pairs) — kept verbatim in
// shape, generalized from a single ECDSA-key field into the full set
// this module's node needs.
package config

import (
	"crypto/ecdsa"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"

	"github.com/kutluhann/kademlia-node/constants"
	"github.com/kutluhann/kademlia-node/identifier"
)

// Config holds a node's runtime identity and tunables.
type Config struct {
	privateKey *ecdsa.PrivateKey
	self       identifier.ID
	dataDir    string

	k     int
	alpha int
	beta  int
}

var (
	config     *Config
	configOnce sync.Once
)

// Init loads .env (if present) and builds the process-wide Config exactly
// once; subsequent calls return the same instance.
func Init() *Config {
	configOnce.Do(func() {
		godotenv.Load()

		config = &Config{
			dataDir: envOr("NODE_DATA_DIR", constants.DefaultDataDir),
			k:       envIntOr("NODE_K", constants.K),
			alpha:   envIntOr("NODE_ALPHA", constants.Alpha),
			beta:    envIntOr("NODE_BETA", constants.Beta),
		}
	})
	return config
}

// GetConfig returns the process-wide Config, initializing it on first use.
func GetConfig() *Config {
	if config == nil {
		return Init()
	}
	return config
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (c *Config) SetPrivateKey(key *ecdsa.PrivateKey) { c.privateKey = key }
func (c *Config) GetPrivateKey() *ecdsa.PrivateKey    { return c.privateKey }
func (c *Config) HasPrivateKey() bool                 { return c.privateKey != nil }

func (c *Config) SetSelf(id identifier.ID) { c.self = id }
func (c *Config) GetSelf() identifier.ID   { return c.self }

func (c *Config) DataDir() string { return c.dataDir }

func (c *Config) K() int     { return c.k }
func (c *Config) Alpha() int { return c.alpha }
func (c *Config) Beta() int  { return c.beta }
