// Command sql-stats prints the query an operator runs against the
// optional metrics Postgres sink (internal/metrics) to pull back archived
// ChartEntry series for a dashboard, mirroring the teacher's sql-stats
// tool for its HomeAssistant statistics schema.
package main

import "fmt"

func main() {
	fmt.Print(`SELECT
  series,
  timestamp,
  value
FROM chart_entries
WHERE series IN ('diff', 'price_mean', 'price_min', 'price_max')
ORDER BY series, timestamp;
`)
}
