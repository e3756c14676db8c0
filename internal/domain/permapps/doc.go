/*
Package permapps builds the categorized app list of a permission group screen.

# Overview

A Model watches three inputs:

  - the per-group UI info feed (one entry per package and user)
  - the full-storage-access feed, for the Storage group only
  - the screen's "show system apps" toggle

Whenever one of them changes and the required inputs are present, the model
re-derives the whole CategorizedView and publishes it. Recomputes are
serialized; observers are notified synchronously on the updating goroutine.

Around the view the model answers the screen's other queries: full-storage
membership, whether packages are loaded, sensor blocked status, navigation
routes with location intercepts, usage summaries, preference ordering and
screen-view statistics.

# Usage

	mgr := permapps.NewManager(env)
	model, err := mgr.Model(permgroup.Camera)
	if err != nil {
		return err
	}
	cancel := model.Categorized().Observe(func(v permapps.CategorizedView) {
		render(v)
	})
	defer cancel()
*/
package permapps
