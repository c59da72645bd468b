package db

const schema = `
CREATE TABLE IF NOT EXISTS songs (
	id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	title             TEXT NOT NULL,
	artist            TEXT NOT NULL,
	album             TEXT,
	status            TEXT NOT NULL DEFAULT 'want_to_jam'
		CHECK (status IN ('want_to_jam', 'learning', 'can_play', 'nailed_it')),
	bass_difficulty   TEXT CHECK (bass_difficulty IN ('easy', 'medium', 'hard')),
	drums_difficulty  TEXT CHECK (drums_difficulty IN ('easy', 'medium', 'hard')),
	spotify_id        TEXT,
	spotify_url       TEXT,
	youtube_url       TEXT,
	cover_art_url     TEXT,
	songsterr_url     TEXT,
	songsterr_bass_id INTEGER,
	songsterr_drum_id INTEGER,
	genius_url        TEXT,
	chord_chart_url   TEXT,
	notes             TEXT,
	added_by          TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS artist_idx ON songs (artist);
CREATE INDEX IF NOT EXISTS status_idx ON songs (status);
CREATE INDEX IF NOT EXISTS created_at_idx ON songs (created_at);
`
