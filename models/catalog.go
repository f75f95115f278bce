package models

import "time"

// Movie is a standalone catalogue title with a playable file.
type Movie struct {
	ID             int64     `json:"id"`
	DocumentID     string    `json:"documentId"`
	Title          string    `json:"title"`
	Overview       string    `json:"overview,omitempty"`
	Year           int       `json:"year,omitempty"`
	RuntimeMinutes int       `json:"runtimeMinutes,omitempty"`
	PosterURL      string    `json:"posterUrl,omitempty"`
	BackdropURL    string    `json:"backdropUrl,omitempty"`
	VideoPath      string    `json:"videoPath,omitempty"` // relative to the media library root
	GenreIDs       []int64   `json:"genreIds,omitempty"`
	CastIDs        []int64   `json:"castIds,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Series is a catalogue show grouping seasons and episodes.
type Series struct {
	ID          int64     `json:"id"`
	DocumentID  string    `json:"documentId"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview,omitempty"`
	Year        int       `json:"year,omitempty"`
	PosterURL   string    `json:"posterUrl,omitempty"`
	BackdropURL string    `json:"backdropUrl,omitempty"`
	GenreIDs    []int64   `json:"genreIds,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Season groups episodes within a series.
type Season struct {
	ID         int64  `json:"id"`
	DocumentID string `json:"documentId"`
	SeriesID   int64  `json:"seriesId"`
	Number     int    `json:"number"`
	Title      string `json:"title,omitempty"`
}

// Episode is a playable entry within a season.
type Episode struct {
	ID             int64     `json:"id"`
	DocumentID     string    `json:"documentId"`
	SeriesID       int64     `json:"seriesId"`
	SeasonID       int64     `json:"seasonId"`
	Number         int       `json:"number"`
	Title          string    `json:"title,omitempty"`
	Overview       string    `json:"overview,omitempty"`
	RuntimeMinutes int       `json:"runtimeMinutes,omitempty"`
	VideoPath      string    `json:"videoPath,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Genre labels movies and series.
type Genre struct {
	ID         int64  `json:"id"`
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
}

// Person appears in movie or series credits.
type Person struct {
	ID         int64  `json:"id"`
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
	PhotoURL   string `json:"photoUrl,omitempty"`
}

// Pagination describes one page of a collection response.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}
