package lavalink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/keshon/guildtunes/internal/music/track"
	"github.com/keshon/guildtunes/pkg/retrylimit"
)

// StatusError is a non-2xx answer from the node REST API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("node returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("node returned %d: %s", e.Code, e.Message)
}

func (e *StatusError) StatusCode() int { return e.Code }

// LoadTracks resolves a URL or a free-text search. Plain text is searched
// with the configured prefix and only the first hit is kept; URLs may
// resolve to a playlist. Results are cached by identifier.
func (n *Node) LoadTracks(ctx context.Context, query string) (track.Result, error) {
	identifier := n.identifier(query)
	if n.cache != nil {
		if res, ok := n.cache.Get(identifier); ok {
			log.Printf("[Node] Search cache hit: %s", identifier)
			return res, nil
		}
	}

	var lr loadResult
	if err := n.do(ctx, http.MethodGet, "/v4/loadtracks?identifier="+url.QueryEscape(identifier), nil, &lr); err != nil {
		return track.Result{}, fmt.Errorf("failed to load tracks: %w", err)
	}

	res, err := decodeLoadResult(lr)
	if err != nil {
		return track.Result{}, err
	}
	if n.cache != nil {
		n.cache.Add(identifier, res)
	}
	return res, nil
}

func (n *Node) identifier(query string) string {
	query = strings.TrimSpace(query)
	if isURL(query) || hasSearchPrefix(query) {
		return query
	}
	return n.cfg.SearchPrefix + ":" + query
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func hasSearchPrefix(s string) bool {
	prefix, _, ok := strings.Cut(s, ":")
	return ok && strings.HasSuffix(prefix, "search") && !strings.Contains(prefix, " ")
}

func decodeLoadResult(lr loadResult) (track.Result, error) {
	switch lr.LoadType {
	case loadTrack:
		var w wireTrack
		if err := json.Unmarshal(lr.Data, &w); err != nil {
			return track.Result{}, fmt.Errorf("failed to decode track: %w", err)
		}
		return track.Single(w.toTrack()), nil

	case loadSearch:
		var ws []wireTrack
		if err := json.Unmarshal(lr.Data, &ws); err != nil {
			return track.Result{}, fmt.Errorf("failed to decode search result: %w", err)
		}
		first, ok := lo.First(ws)
		if !ok {
			return track.Result{}, track.ErrNothingFound
		}
		return track.Single(first.toTrack()), nil

	case loadPlaylist:
		var pd playlistData
		if err := json.Unmarshal(lr.Data, &pd); err != nil {
			return track.Result{}, fmt.Errorf("failed to decode playlist: %w", err)
		}
		if len(pd.Tracks) == 0 {
			return track.Result{}, track.ErrNothingFound
		}
		return track.FromPlaylist(pd.Info.Name, toTracks(pd.Tracks)), nil

	case loadEmpty:
		return track.Result{}, track.ErrNothingFound

	case loadError:
		var ex exception
		_ = json.Unmarshal(lr.Data, &ex)
		return track.Result{}, fmt.Errorf("node failed to load track: %s (severity %s)", ex.Message, ex.Severity)
	}
	return track.Result{}, fmt.Errorf("unknown load type %q", lr.LoadType)
}

// Play starts t on the guild's node player, replacing what was playing.
func (n *Node) Play(ctx context.Context, guildID string, t track.Track) error {
	encoded := t.Encoded
	return n.updatePlayer(ctx, guildID, playerUpdate{
		Track:  &trackUpdate{Encoded: &encoded},
		Paused: lo.ToPtr(false),
	})
}

// Pause sets the pause flag of the guild's node player.
func (n *Node) Pause(ctx context.Context, guildID string, paused bool) error {
	return n.updatePlayer(ctx, guildID, playerUpdate{Paused: &paused})
}

// Stop ends the current track of the guild's node player.
func (n *Node) Stop(ctx context.Context, guildID string) error {
	return n.updatePlayer(ctx, guildID, playerUpdate{Track: &trackUpdate{}})
}

// UpdateVoice hands the guild's voice session over to the node.
func (n *Node) UpdateVoice(ctx context.Context, guildID string, vs VoiceState) error {
	return n.updatePlayer(ctx, guildID, playerUpdate{Voice: &vs})
}

// Destroy removes the guild's node player. It is a no-op without a session,
// since the node drops players together with the session.
func (n *Node) Destroy(ctx context.Context, guildID string) error {
	sid := n.SessionID()
	if sid == "" {
		return nil
	}
	return n.do(ctx, http.MethodDelete, playerPath(sid, guildID), nil, nil)
}

func (n *Node) updatePlayer(ctx context.Context, guildID string, upd playerUpdate) error {
	sid, err := n.awaitSession(ctx)
	if err != nil {
		return err
	}
	return n.do(ctx, http.MethodPatch, playerPath(sid, guildID), upd, nil)
}

func playerPath(sessionID, guildID string) string {
	return fmt.Sprintf("/v4/sessions/%s/players/%s", url.PathEscape(sessionID), url.PathEscape(guildID))
}

// do sends one REST request, retrying on transport errors, 429 and 5xx.
func (n *Node) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	return retrylimit.WithRetryConfig(ctx, func() error {
		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, n.baseURL+path, rdr)
		if err != nil {
			return &retrylimit.FatalError{Err: err}
		}
		req.Header.Set("Authorization", n.cfg.Password)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := n.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return &retrylimit.FatalError{Err: err}
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			var er errorResponse
			_ = json.NewDecoder(resp.Body).Decode(&er)
			serr := &StatusError{Code: resp.StatusCode, Message: lo.CoalesceOrEmpty(er.Message, er.Error)}
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return &retrylimit.FatalError{Err: serr}
			}
			return serr
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &retrylimit.FatalError{Err: fmt.Errorf("failed to decode response: %w", err)}
		}
		return nil
	}, n.limiter, n.retry)
}
