package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seedsweep/seedsweep/internal/config"
)

func TestSubmitOptionsFor(t *testing.T) {
	cfg := &config.Config{
		Label:      "tv",
		AnimeLabel: "anime",
		SavePath:   "/downloads",
	}

	tests := []struct {
		name      string
		job       *Job
		wantLabel string
	}{
		{"standard content", &Job{Anime: false}, "tv"},
		{"anime content", &Job{Anime: true}, "anime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := submitOptionsFor(cfg, tt.job)
			assert.Equal(t, tt.wantLabel, opts.Label)
			assert.Equal(t, "/downloads", opts.SavePath)
			assert.True(t, opts.Start)
		})
	}
}

func TestSubmitOptionsForEmptyAnimeLabel(t *testing.T) {
	// anime content takes the anime label even when it is not configured
	cfg := &config.Config{Label: "tv", AnimeLabel: ""}

	opts := submitOptionsFor(cfg, &Job{Anime: true})
	assert.Empty(t, opts.Label)
}
