// Package usage turns permission access history into the data shown next to
// each app on a permission group screen.
//
// It covers three concerns:
//   - Filtering: usage older than the form-factor dependent window (7 days on
//     handheld devices, 1 day elsewhere) is ignored.
//   - Extraction: the last access time of one permission group, keyed by user
//     and package.
//   - Summaries: the human readable "Last access" line for a given kind of
//     access (sensor today, sensor yesterday, sensor this week, content
//     provider within 24 hours or 7 days).
package usage
