// Command ghost is a headless relay client. It walks a circle around the
// origin and logs the remote players it can see.
package main

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"city-relay-server/client"
	"city-relay-server/config"
	"city-relay-server/domain"
)

const tick = 50 * time.Millisecond

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.LoadGhost()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level(cfg.LogLevel)})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionCfg := client.DefaultConfig(cfg.URL)
	sessionCfg.SendRate = rate.Limit(cfg.SendRate)
	sessionCfg.DialTimeout = cfg.Dial
	session := client.NewSession(sessionCfg)

	go walk(ctx, session, cfg.Radius, cfg.Period)
	go report(ctx, session)

	if err := session.Run(ctx); err != nil {
		if errors.Is(err, client.ErrOffline) {
			// Local-only: keep walking with nobody watching.
			<-ctx.Done()
			return
		}
		slog.Error("session ended", "error", err)
		os.Exit(1)
	}
}

// walk publishes a pose every tick, standing in for a local simulation.
func walk(ctx context.Context, s *client.Session, radius float64, period time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			angle := 2 * math.Pi * now.Sub(start).Seconds() / period.Seconds()
			heading := angle + math.Pi/2
			s.Publish(domain.TransformSnapshot{
				Position: domain.Vec3{X: radius * math.Cos(angle), Z: radius * math.Sin(angle)},
				Rotation: domain.Quat{Y: math.Sin(heading / 2), W: math.Cos(heading / 2)},
				Action:   "walk",
			})
		}
	}
}

func report(ctx context.Context, s *client.Session) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for id, t := range s.Mirror().Targets() {
				slog.Debug("remote player", "clientId", id, "x", t.Position.X, "z", t.Position.Z, "action", t.Action)
			}
			slog.Info("roster", "self", s.Mirror().Self(), "remote", s.Mirror().Len(), "rtt", s.RTT())
		}
	}
}
