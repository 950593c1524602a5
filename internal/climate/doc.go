// Package climate is the query and aggregation core of the service.
//
// Every function here is a pure transformation over measurement rows that the
// repository has already scanned. Queries are expressed as ordered stages:
//
//	filter (station, inclusive date range)
//	  -> group (by date or by station)
//	  -> aggregate (max, min/mean/max, count)
//	  -> sort (ascending date or station id)
//
// Dates are ISO-8601 strings (YYYY-MM-DD), so range checks and ordering use
// plain string comparison. The shaping types in shape.go turn the ordered
// results into the JSON payloads served by the HTTP handlers.
package climate
