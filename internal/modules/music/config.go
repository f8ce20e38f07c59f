package music

import "time"

// Config holds the music module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`

	// Spotify credentials are optional; without them Spotify links
	// resolve as unsupported.
	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`

	// IdleTimeout is how long an exhausted session waits for a new
	// enqueue before leaving the voice channel.
	IdleTimeout time.Duration `env:"MUSIC_IDLE_TIMEOUT" envDefault:"300s"`

	// ChoiceTimeout bounds the search disambiguation wait.
	ChoiceTimeout time.Duration `env:"MUSIC_CHOICE_TIMEOUT" envDefault:"30s"`
}
