// Command manifold-observer subscribes to state commit announcements and
// logs each one it decodes. It holds a dead-reckoning registry, but commit
// announcements carry no per-agent motion, so no agent is fed into it and
// no motion is predicted or rendered.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/manifoldweb/node/internal/deadreckoning"
	"github.com/manifoldweb/node/internal/wire"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const actionsTopic = "manifold-actions"

func main() {
	root := &cobra.Command{Use: "manifold-observer"}
	root.AddCommand(watchCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func watchCmd() *cobra.Command {
	var listenAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "subscribe to commit announcements and log them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(listenAddr)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "/ip4/0.0.0.0/tcp/0", "libp2p listen address")
	return cmd
}

func watch(listenAddr string) error {
	log := logrus.StandardLogger()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	h, err := libp2p.New(libp2p.ListenAddrStrings(listenAddr))
	if err != nil {
		return fmt.Errorf("create host: %w", err)
	}
	defer h.Close()

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		return fmt.Errorf("create pubsub: %w", err)
	}
	topic, err := ps.Join(actionsTopic)
	if err != nil {
		return fmt.Errorf("join topic: %w", err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribe topic: %w", err)
	}

	registry := deadreckoning.NewRegistry(deadreckoning.DefaultEngine())

	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var commit wire.StateCommit
		if err := wire.Decode(msg.Data, &commit); err != nil {
			log.WithError(err).Warn("decode state commit")
			continue
		}
		log.WithFields(logrus.Fields{
			"round_id":   commit.RoundID,
			"tick":       commit.Tick,
			"vote_count": commit.VoteCount,
			"tracked":    registry.Len(),
		}).Info("observed commit")
	}
}
