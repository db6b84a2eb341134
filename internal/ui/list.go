package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
	"github.com/sudipghimire533/ytui-music-sub000/internal/tasks"
)

var (
	_ list.DefaultItem = musicItem{}
	_ list.DefaultItem = playlistItem{}
	_ list.DefaultItem = artistItem{}
	_ list.DefaultItem = errorItem{}
)

// favouriter is implemented by list items that can be starred.
type favouriter interface {
	favourite() *models.Favourite
}

// musicItem wraps [models.MusicItem] to implement [list.Item].
type musicItem struct {
	music models.MusicItem
}

func (i musicItem) FilterValue() string { return i.music.Title }
func (i musicItem) Title() string       { return i.music.Title }
func (i musicItem) Description() string {
	return fmt.Sprintf("%s • %s", i.music.Author, shared.FormatDuration(i.music.Duration))
}
func (i musicItem) favourite() *models.Favourite { return models.FavouriteFromMusic(i.music) }

// playlistItem wraps [models.PlaylistItem] to implement [list.Item].
type playlistItem struct {
	playlist models.PlaylistItem
}

func (i playlistItem) FilterValue() string { return i.playlist.Title }
func (i playlistItem) Title() string       { return i.playlist.Title }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d videos", i.playlist.VideoCount)
	if i.playlist.Author != "" {
		desc = fmt.Sprintf("%s • %s", i.playlist.Author, desc)
	}
	return desc
}
func (i playlistItem) favourite() *models.Favourite { return models.FavouriteFromPlaylist(i.playlist) }

// artistItem wraps [models.ArtistItem] to implement [list.Item].
type artistItem struct {
	artist models.ArtistItem
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return i.artist.Name }
func (i artistItem) Description() string {
	return fmt.Sprintf("%d subscribers • %d videos", i.artist.Subscribers, i.artist.VideoCount)
}
func (i artistItem) favourite() *models.Favourite { return models.FavouriteFromArtist(i.artist) }

// errorItem stands in for a whole list whose fetch failed.
type errorItem struct {
	err error
}

func (i errorItem) FilterValue() string { return "" }
func (i errorItem) Title() string       { return "Error: " + i.err.Error() }
func (i errorItem) Description() string { return "" }

// slotItems converts a result slot into list items. A failed slot becomes a single [errorItem].
func slotItems[T any](slot tasks.Slot[T], wrap func(T) list.Item) []list.Item {
	if slot.Failed() {
		return []list.Item{errorItem{err: slot.Err}}
	}
	items := make([]list.Item, len(slot.Items))
	for i, it := range slot.Items {
		items[i] = wrap(it)
	}
	return items
}

func wrapMusic(m models.MusicItem) list.Item       { return musicItem{music: m} }
func wrapPlaylist(p models.PlaylistItem) list.Item { return playlistItem{playlist: p} }
func wrapArtist(a models.ArtistItem) list.Item     { return artistItem{artist: a} }
