package server

import (
	"context"
	"net/http"
	"time"
)

const writeWait = 10 * time.Second

// handleStream pushes a snapshot immediately and then every StreamInterval
// until the client goes away or the server shuts down.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		s.log.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drain client frames so close and ping control messages are processed
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.opts.StreamInterval)
	defer ticker.Stop()

	for {
		snap := s.sampler.Sample(ctx)
		if ctx.Err() != nil {
			return
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(snap); err != nil {
			s.log.WithError(err).Debug("Stream client write failed")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}
