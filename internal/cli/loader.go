package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/jayp120/syncly/internal/series"
	"github.com/jayp120/syncly/internal/seriesfile"
)

// loadAllSeries loads every definition, failing fast on errors.
func loadAllSeries(cfg *Config) ([]series.Series, error) {
	result, errs := seriesfile.Load(cfg.DefinitionsDir, seriesfile.LoadModeFailFast)
	if len(errs) > 0 {
		var loadErr *seriesfile.LoadError
		if errors.As(errs[0], &loadErr) {
			return nil, NewExitError(ExitCommandError, loadErr.Error())
		}
		return nil, NewExitError(ExitCommandError, errs[0].Error())
	}
	return result.Series, nil
}

// findSeries loads the definitions and returns the one with the given id.
func findSeries(cfg *Config, id string) (*series.Series, error) {
	all, err := loadAllSeries(cfg)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, NewExitError(ExitCommandError, fmt.Sprintf("series %q not found in %s", id, cfg.DefinitionsDir))
}

// parseAsOf resolves the --as-of flag. Empty means now.
// Accepts RFC 3339 timestamps and bare date keys.
func parseAsOf(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := series.ParseDateKey(value); err == nil {
		return t, nil
	}
	return time.Time{}, NewExitError(ExitCommandError,
		fmt.Sprintf("invalid --as-of %q: want RFC 3339 or YYYY-MM-DD", value))
}
