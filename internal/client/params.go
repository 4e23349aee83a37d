package client

import "github.com/seedsweep/seedsweep/internal/config"

// submitOptions are the daemon submission parameters derived from the
// shared configuration. Start is always true: submissions begin downloading
// immediately.
type submitOptions struct {
	Label    string
	SavePath string
	Start    bool
}

// submitOptionsFor derives the label and save path for a job. Anime content
// takes the anime label even when it is empty.
func submitOptionsFor(cfg *config.Config, job *Job) submitOptions {
	label := cfg.Label
	if job.Anime {
		label = cfg.AnimeLabel
	}

	return submitOptions{
		Label:    label,
		SavePath: cfg.SavePath,
		Start:    true,
	}
}
