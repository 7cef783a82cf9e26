package handlers

import (
	"sync/atomic"
	"time"

	"media-gallery/internal/database"
	"media-gallery/internal/pipeline"
	"media-gallery/internal/preview"
	"media-gallery/internal/scanner"
	"media-gallery/internal/startup"
)

type Handlers struct {
	db       *database.Database
	pipe     *pipeline.Pipeline
	previews *preview.Queue
	scan     *scanner.Scanner
	mediaDir string
	thumbDir string

	startedAt time.Time
	scanning  atomic.Bool
	lastScan  atomic.Pointer[scanner.Stats]
}

func New(db *database.Database, pipe *pipeline.Pipeline, previews *preview.Queue, scan *scanner.Scanner, config *startup.Config) *Handlers {
	return &Handlers{
		db:        db,
		pipe:      pipe,
		previews:  previews,
		scan:      scan,
		mediaDir:  config.MediaDir,
		thumbDir:  config.ThumbnailDir,
		startedAt: time.Now(),
	}
}
