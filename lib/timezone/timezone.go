package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/London")
	if err != nil {
		panic(err)
	}
}

// artemis.bm publishes from the UK, so dates scraped from it are
// interpreted in London time regardless of where the batch job runs.
// pinning the location keeps Year()/Month() stable across deployments.
func Now() time.Time {
	return time.Now().In(Location)
}
