// Package aggregate derives chart-ready summaries from an effective
// earthquake set.
//
// Every function here is a pure derivation: it reads its input records,
// never retains them, and returns freshly allocated results. Magnitude
// classification is driven by a single ordered tier table shared by the map
// markers (color, radius) and the stacked bar chart (bin), so the two can
// never disagree about which tier an event belongs to.
package aggregate
