package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

func newTestSource(servers ...string) *InvidiousSource {
	return NewInvidiousSource(InvidiousOpts{
		Servers:           servers,
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
	})
}

func TestInvidiousSource(t *testing.T) {
	t.Run("NewInvidiousSource", func(t *testing.T) {
		t.Run("normalises servers", func(t *testing.T) {
			svc := newTestSource(" http://a.example/ ", "", "http://b.example")
			got := svc.Servers()
			if len(got) != 2 || got[0] != "http://a.example" || got[1] != "http://b.example" {
				t.Errorf("unexpected servers %v", got)
			}
		})

		t.Run("defaults", func(t *testing.T) {
			svc := NewInvidiousSource(InvidiousOpts{})
			if svc.timeout != defaultInvidiousTimeout {
				t.Errorf("expected default timeout, got %v", svc.timeout)
			}
			if svc.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
			if svc.Name() != "Invidious" {
				t.Errorf("expected name Invidious, got %s", svc.Name())
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/search" {
				t.Errorf("expected path /api/v1/search, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("q") != "lofi" {
				t.Errorf("expected query lofi, got %s", r.URL.Query().Get("q"))
			}

			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Query().Get("type") {
			case "video":
				json.NewEncoder(w).Encode([]map[string]any{
					{"type": "video", "title": "Lofi Beats", "videoId": "v1", "author": "Chill", "lengthSeconds": 185},
					{"type": "playlist", "title": "stray playlist", "playlistId": "PLx"},
					{"type": "video", "title": "No ID"},
				})
			case "playlist":
				json.NewEncoder(w).Encode([]map[string]any{
					{"type": "playlist", "title": "Lofi Mix", "playlistId": "PL1", "author": "Chill", "videoCount": 40},
				})
			case "channel":
				json.NewEncoder(w).Encode([]map[string]any{
					{"type": "channel", "author": "Chill", "authorId": "UC1", "subCount": 1000, "videoCount": 12},
				})
			default:
				t.Errorf("unexpected type %q", r.URL.Query().Get("type"))
			}
		}))
		defer server.Close()

		svc := newTestSource(server.URL)

		t.Run("all kinds", func(t *testing.T) {
			res, err := svc.Search(context.Background(), SearchQuery{
				Query: "lofi", IncludeMusic: true, IncludePlaylists: true, IncludeArtists: true,
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(res.Music) != 1 || res.Music[0].ID != "v1" || res.Music[0].Duration != 185 {
				t.Errorf("unexpected music %+v", res.Music)
			}
			if len(res.Playlists) != 1 || res.Playlists[0].ID != "PL1" || res.Playlists[0].VideoCount != 40 {
				t.Errorf("unexpected playlists %+v", res.Playlists)
			}
			if len(res.Artists) != 1 || res.Artists[0].ID != "UC1" || res.Artists[0].Name != "Chill" {
				t.Errorf("unexpected artists %+v", res.Artists)
			}
		})

		t.Run("only music", func(t *testing.T) {
			res, err := svc.Search(context.Background(), SearchQuery{Query: "lofi", IncludeMusic: true})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if res.Playlists != nil || res.Artists != nil {
				t.Error("kinds that were not requested should stay nil")
			}
		})

		t.Run("no kinds skips the network", func(t *testing.T) {
			res, err := newTestSource("http://127.0.0.1:1").Search(context.Background(), SearchQuery{Query: "lofi"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if res.Music != nil {
				t.Error("expected empty results")
			}
		})

		t.Run("blank query", func(t *testing.T) {
			_, err := svc.Search(context.Background(), SearchQuery{Query: "   ", IncludeMusic: true})
			if !errors.Is(err, shared.ErrInvalidArgument) || !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest and ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("Trending", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/trending" {
				t.Errorf("expected path /api/v1/trending, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("type") != "music" {
				t.Errorf("expected type=music, got %s", r.URL.Query().Get("type"))
			}
			if r.URL.Query().Get("region") != "NP" {
				t.Errorf("expected region NP, got %s", r.URL.Query().Get("region"))
			}
			json.NewEncoder(w).Encode([]map[string]any{
				{"type": "video", "title": "Hit", "videoId": "t1", "author": "Band", "lengthSeconds": 200},
				{"type": "video", "title": "Hit 2", "videoId": "t2", "author": "Band", "lengthSeconds": 210},
			})
		}))
		defer server.Close()

		items, err := newTestSource(server.URL).Trending(context.Background(), "np")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 2 || items[1].ID != "t2" {
			t.Errorf("unexpected trending items %+v", items)
		}
	})

	t.Run("PlaylistContents", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/playlists/PL123" {
				t.Errorf("expected path /api/v1/playlists/PL123, got %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"type":       "playlist",
				"title":      "Mix",
				"playlistId": "PL123",
				"videos": []map[string]any{
					{"title": "One", "videoId": "a", "author": "X", "lengthSeconds": 60},
					{"title": "Two", "videoId": "b", "author": "Y", "lengthSeconds": 61},
				},
			})
		}))
		defer server.Close()

		svc := newTestSource(server.URL)

		items, err := svc.PlaylistContents(context.Background(), "PL123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 2 || items[0].ID != "a" || items[1].Author != "Y" {
			t.Errorf("unexpected playlist items %+v", items)
		}

		pl, err := svc.Playlist(context.Background(), "PL123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pl.Playlist.Title != "Mix" || pl.Playlist.VideoCount != 2 || len(pl.Music) != 2 {
			t.Errorf("unexpected playlist %+v", pl)
		}

		if _, err := svc.PlaylistContents(context.Background(), ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for empty id, got %v", err)
		}
	})

	t.Run("ArtistContents", func(t *testing.T) {
		playlists := map[string]any{
			"playlists": []map[string]any{
				{"type": "playlist", "title": "Albums", "playlistId": "PLa", "author": "Band", "videoCount": 9},
			},
		}

		t.Run("envelope response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/api/v1/channels/UC1/videos":
					json.NewEncoder(w).Encode(map[string]any{
						"videos": []map[string]any{{"type": "video", "title": "Song", "videoId": "s1", "author": "Band"}},
					})
				case "/api/v1/channels/UC1/playlists":
					json.NewEncoder(w).Encode(playlists)
				default:
					t.Errorf("unexpected path %s", r.URL.Path)
				}
			}))
			defer server.Close()

			contents, err := newTestSource(server.URL).ArtistContents(context.Background(), "UC1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(contents.Music) != 1 || contents.Music[0].ID != "s1" {
				t.Errorf("unexpected music %+v", contents.Music)
			}
			if len(contents.Playlists) != 1 || contents.Playlists[0].ID != "PLa" {
				t.Errorf("unexpected playlists %+v", contents.Playlists)
			}
		})

		t.Run("bare array response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/api/v1/channels/UC1/videos":
					w.Write([]byte(`  [{"title":"Old","videoId":"o1","author":"Band","lengthSeconds":99}]`))
				case "/api/v1/channels/UC1/playlists":
					json.NewEncoder(w).Encode(playlists)
				}
			}))
			defer server.Close()

			contents, err := newTestSource(server.URL).ArtistContents(context.Background(), "UC1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(contents.Music) != 1 || contents.Music[0].Duration != 99 {
				t.Errorf("unexpected music %+v", contents.Music)
			}
		})

		t.Run("one half failing fails the call", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/v1/channels/UC1/playlists" {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				json.NewEncoder(w).Encode([]any{})
			}))
			defer server.Close()

			_, err := newTestSource(server.URL).ArtistContents(context.Background(), "UC1")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("Errors", func(t *testing.T) {
		t.Run("status with error body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"error": "Playlist does not exist."})
			}))
			defer server.Close()

			_, err := newTestSource(server.URL).PlaylistContents(context.Background(), "nope")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if got := err.Error(); !strings.Contains(got, "Playlist does not exist.") {
				t.Errorf("expected backend message in error, got %q", got)
			}
		})

		t.Run("malformed body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>not json</html>"))
			}))
			defer server.Close()

			_, err := newTestSource(server.URL).Trending(context.Background(), "")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("timeout surfaces as the same error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}))
			defer server.Close()

			svc := NewInvidiousSource(InvidiousOpts{Servers: []string{server.URL}, Timeout: 50 * time.Millisecond, RequestsPerSecond: 100})
			start := time.Now()
			_, err := svc.Trending(context.Background(), "")
			if !errors.Is(err, shared.ErrAPIRequest) || !errors.Is(err, shared.ErrTimeout) {
				t.Errorf("expected ErrAPIRequest wrapping ErrTimeout, got %v", err)
			}
			if time.Since(start) > time.Second {
				t.Errorf("call was not bounded by the timeout: %v", time.Since(start))
			}
		})

		t.Run("no servers", func(t *testing.T) {
			_, err := newTestSource().Trending(context.Background(), "")
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})

	t.Run("Failover", func(t *testing.T) {
		var badHits, goodHits atomic.Int32
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			badHits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer bad.Close()

		good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			goodHits.Add(1)
			json.NewEncoder(w).Encode([]map[string]any{{"type": "video", "title": "ok", "videoId": "ok"}})
		}))
		defer good.Close()

		items, err := newTestSource(bad.URL, good.URL).Trending(context.Background(), "")
		if err != nil {
			t.Fatalf("expected failover to succeed, got %v", err)
		}
		if len(items) != 1 {
			t.Errorf("expected 1 item, got %d", len(items))
		}
		if badHits.Load() != 1 || goodHits.Load() != 1 {
			t.Errorf("expected one hit each, got bad=%d good=%d", badHits.Load(), goodHits.Load())
		}
	})

	t.Run("Cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := newTestSource(server.URL).Trending(ctx, "")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if errors.Is(err, shared.ErrTimeout) {
			t.Error("a cancelled call should not be reported as a timeout")
		}
	})
}
