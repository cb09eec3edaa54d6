package staging

import (
	"log/slog"
	"time"
)

func (s *Stage) runMonitor(done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.control.finished:
			s.logProgress(slog.LevelInfo)
			return
		case <-ticker.C:
			s.logProgress(slog.LevelDebug)
		}
	}
}

func (s *Stage) logProgress(level slog.Level) {
	s.logger.Log(s.control.Context(), level, "stage progress",
		"elapsed", time.Since(s.began).Round(time.Millisecond),
		"feeder_queue", s.feeder.queueDepth(),
	)
	for _, st := range s.Stats() {
		s.logger.Log(s.control.Context(), level, "step progress",
			"step", st.Name,
			"workers", st.Workers,
			"batches", st.Batches,
			"records", st.Records,
			"queue", st.QueueDepth,
			"busy", st.BusyTime.Round(time.Millisecond),
			"done", st.Done,
		)
	}
}
