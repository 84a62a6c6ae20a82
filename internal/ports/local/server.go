package local

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"carcassonne/internal/config"
	"carcassonne/internal/protocol"
)

// Serve accepts connections on the configured transport and feeds them to
// the hub until ctx is canceled. The hub itself must be running already.
func Serve(ctx context.Context, cfg *config.Config, hub *Hub, log *slog.Logger) error {
	switch cfg.Server.Transport {
	case "tcp":
		return serveTCP(ctx, cfg.Server.Addr, hub, log)
	case "ws":
		return serveWS(ctx, cfg.Server.Addr, hub, log)
	default:
		return errors.New("unknown transport " + cfg.Server.Transport)
	}
}

func serveTCP(ctx context.Context, addr string, hub *Hub, log *slog.Logger) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	log.Info("listening", "transport", "tcp", "addr", addr)
	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("accept failed", "err", err)
			continue
		}
		go hub.Attach(ctx, newTCPConn(c))
	}
}

func serveWS(ctx context.Context, addr string, hub *Hub, log *slog.Logger) error {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// Hosts run on LAN or behind a reverse proxy that owns the
			// origin policy.
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Warn("websocket accept failed", "remote", r.RemoteAddr, "err", err)
			return
		}
		ws.SetReadLimit(protocol.MaxFrameSize)
		hub.Attach(ctx, newWSConn(ws, r.RemoteAddr))
	})

	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", "transport", "ws", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
