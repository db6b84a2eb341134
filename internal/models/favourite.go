package models

import (
	"fmt"
	"time"
)

// ItemKind names which result list an item came from.
type ItemKind string

const (
	KindMusic    ItemKind = "music"
	KindPlaylist ItemKind = "playlist"
	KindArtist   ItemKind = "artist"
)

// ParseItemKind validates a kind name coming from the CLI or the database.
func ParseItemKind(s string) (ItemKind, error) {
	switch k := ItemKind(s); k {
	case KindMusic, KindPlaylist, KindArtist:
		return k, nil
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

// Favourite is a starred music, playlist or artist item.
type Favourite struct {
	id        string
	sequence  int
	kind      ItemKind
	itemID    string
	title     string
	author    string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewFavourite creates an unsaved favourite. The ID is assigned by the repository.
func NewFavourite(sequence int, kind ItemKind, itemID, title, author string) *Favourite {
	now := time.Now()
	return &Favourite{
		sequence:  sequence,
		kind:      kind,
		itemID:    itemID,
		title:     title,
		author:    author,
		createdAt: now,
		updatedAt: now,
	}
}

// FavouriteFromMusic stars a music item.
func FavouriteFromMusic(m MusicItem) *Favourite {
	return NewFavourite(0, KindMusic, m.ID, m.Title, m.Author)
}

// FavouriteFromPlaylist stars a playlist item.
func FavouriteFromPlaylist(p PlaylistItem) *Favourite {
	return NewFavourite(0, KindPlaylist, p.ID, p.Title, p.Author)
}

// FavouriteFromArtist stars an artist item.
func FavouriteFromArtist(a ArtistItem) *Favourite {
	return NewFavourite(0, KindArtist, a.ID, a.Name, "")
}

func (f *Favourite) ID() string                { return f.id }
func (f *Favourite) Sequence() int             { return f.sequence }
func (f *Favourite) Kind() ItemKind            { return f.kind }
func (f *Favourite) ItemID() string            { return f.itemID }
func (f *Favourite) Title() string             { return f.title }
func (f *Favourite) Author() string            { return f.author }
func (f *Favourite) CreatedAt() time.Time      { return f.createdAt }
func (f *Favourite) UpdatedAt() time.Time      { return f.updatedAt }
func (f *Favourite) DeletedAt() *time.Time     { return f.deletedAt }
func (f *Favourite) SetID(id string)           { f.id = id }
func (f *Favourite) SetSequence(seq int)       { f.sequence = seq }
func (f *Favourite) SetTitle(title string)     { f.title = title }
func (f *Favourite) SetAuthor(a string)        { f.author = a }
func (f *Favourite) SetCreatedAt(t time.Time)  { f.createdAt = t }
func (f *Favourite) SetUpdatedAt(t time.Time)  { f.updatedAt = t }
func (f *Favourite) SetDeletedAt(t *time.Time) { f.deletedAt = t }

// Validate checks required fields.
func (f *Favourite) Validate() error {
	if f.id == "" {
		return fmt.Errorf("favourite id is required")
	}
	if _, err := ParseItemKind(string(f.kind)); err != nil {
		return err
	}
	if f.itemID == "" {
		return fmt.Errorf("favourite item id is required")
	}
	if f.title == "" {
		return fmt.Errorf("favourite title is required")
	}
	return nil
}

// HistoryEntry records one play started from the client.
type HistoryEntry struct {
	ID       string    `json:"id"`
	Sequence int       `json:"sequence"`
	Item     MusicItem `json:"item"`
	PlayedAt time.Time `json:"played_at"`
}
