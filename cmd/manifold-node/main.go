// Command manifold-node runs one participant of the manifold web network.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manifoldweb/node/internal/agent"
	"github.com/manifoldweb/node/internal/config"
	"github.com/manifoldweb/node/internal/genesis"
	"github.com/manifoldweb/node/internal/node"
	"github.com/manifoldweb/node/internal/sector"
	"github.com/manifoldweb/node/internal/tick"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{Use: "manifold-node"}
	root.AddCommand(startCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func startCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(env)
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "configuration overlay name")
	return cmd
}

func run(env string) error {
	log := logrus.StandardLogger()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(lvl)
	}

	store := agent.NewStore()
	table := sector.NewOwnershipTable(cfg.Network.ID, cfg.Sector.Size)

	if cfg.Genesis.ManifestFile != "" {
		if manifest, err := genesis.Load(cfg.Genesis.ManifestFile); err == nil {
			if err := genesis.Spawn(manifest, store, table); err != nil {
				log.WithError(err).Warn("spawn genesis agents")
			}
		} else {
			log.WithError(err).Debug("no genesis manifest loaded")
		}
	}

	tickCfg := tick.DefaultConfig()
	tickCfg.TickPeriod = time.Duration(cfg.Tick.PeriodMS) * time.Millisecond
	tickCfg.MutationRate = cfg.Tick.MutationRate
	tickCfg.ReplicationThreshold = cfg.Tick.ReplicationThreshold
	tickCfg.ReplicationTax = cfg.Tick.ReplicationTax
	tickCfg.SandboxFailurePenalty = cfg.Tick.SandboxFailurePenalty

	engine := tick.NewEngine(store, table, noopSandbox, tickCfg, log, rand.New(rand.NewSource(time.Now().UnixNano())))

	n, err := node.New(node.Config{
		ListenAddr:     cfg.Network.ListenAddr,
		DiscoveryTag:   cfg.Network.DiscoveryTag,
		BootstrapPeers: cfg.Network.BootstrapPeers,
	}, store, table, engine, log)
	if err != nil {
		return fmt.Errorf("construct node: %w", err)
	}
	defer n.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.WithField("self", n.Self()).Info("node started")
	if err := n.Run(ctx, tickCfg.TickPeriod); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// noopSandbox is the default behavior program when no external sandbox is
// wired in: agents simply persist unchanged from tick to tick.
func noopSandbox(a agent.Agent, env tick.Env) ([]tick.Action, error) {
	return nil, nil
}
