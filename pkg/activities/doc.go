// Package activities maintains the scraped activity cache: sources that
// produce activities, a Refresher that replaces the cache on a schedule,
// and the query rules used by the scrape_activities tool.
package activities
