package model

// Side identifies which face of a disk a track sits on.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Vinyl represents one album in the library. The ID is generated by the
// client at creation time and never changes; it keys the vinyl's asset
// directory and every owned track.
type Vinyl struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	CoverPath string `json:"coverPath"` // reference path served by /api/files
	CreatedAt int64  `json:"createdAt"` // epoch milliseconds, set once
}

// Track is one audio item belonging to a vinyl, positioned by disk, side
// and 1-based order within that (disk, side) group.
type Track struct {
	ID         string `json:"id"`
	VinylID    string `json:"vinylId"`
	Title      string `json:"title"`
	Order      int    `json:"order"`
	Side       Side   `json:"side"`
	DiskNumber int    `json:"diskNumber"`
	AudioPath  string `json:"audioPath"` // reference path served by /api/files
}

// Library is the whole catalog. It is the unit of persistence: the store
// always reads and writes the complete document, never a single vinyl or
// track.
type Library struct {
	Vinyls []Vinyl `json:"vinyls"`
	Tracks []Track `json:"tracks"`
}

// EmptyLibrary returns the initial state of a library that has never been
// saved. Slices are non-nil so the document serializes as [] and not null.
func EmptyLibrary() *Library {
	return &Library{Vinyls: []Vinyl{}, Tracks: []Track{}}
}

// Clone returns a deep copy, so mirrors can be handed out without letting
// callers mutate shared state.
func (l *Library) Clone() *Library {
	out := &Library{
		Vinyls: make([]Vinyl, len(l.Vinyls)),
		Tracks: make([]Track, len(l.Tracks)),
	}
	copy(out.Vinyls, l.Vinyls)
	copy(out.Tracks, l.Tracks)
	return out
}

// TracksFor returns the tracks owned by the given vinyl.
func (l *Library) TracksFor(vinylID string) []Track {
	var out []Track
	for _, t := range l.Tracks {
		if t.VinylID == vinylID {
			out = append(out, t)
		}
	}
	return out
}

// RemoveVinyl drops the vinyl and every track referencing it. Filtering
// tracks here is the only referential-integrity mechanism; nothing else
// checks that a track's vinylId exists.
func (l *Library) RemoveVinyl(vinylID string) {
	vinyls := l.Vinyls[:0]
	for _, v := range l.Vinyls {
		if v.ID != vinylID {
			vinyls = append(vinyls, v)
		}
	}
	l.Vinyls = vinyls

	tracks := l.Tracks[:0]
	for _, t := range l.Tracks {
		if t.VinylID != vinylID {
			tracks = append(tracks, t)
		}
	}
	l.Tracks = tracks
}
