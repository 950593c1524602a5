package handlers

import (
	"encoding/json"
	"net/http"
)

const (
	apiTitle    = "Hawaii Climate API"
	openAPIPath = "/api/docs/openapi.json"
)

func jsonContent(schema interface{}) map[string]interface{} {
	return map[string]interface{}{
		"application/json": map[string]interface{}{"schema": schema},
	}
}

func errorResponse(description string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content":     jsonContent(map[string]string{"$ref": "#/components/schemas/Error"}),
	}
}

func dateParam(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      map[string]string{"type": "string", "format": "date"},
	}
}

func statsOperation(summary, description string, params ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     summary,
			"description": description,
			"parameters":  params,
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"description": "Temperature statistics; TMIN, TAVG and TMAX are null when the range has no data",
					"content":     jsonContent(map[string]string{"$ref": "#/components/schemas/RangeStats"}),
				},
				"400": errorResponse("Malformed date or end before start"),
				"500": errorResponse("Empty dataset or unknown station"),
			},
		},
	}
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the climate API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	nullableNumber := map[string]interface{}{"type": "number", "nullable": true}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       apiTitle,
			"description": "Read-only climate queries over the Hawaii station and measurement dataset",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Route index",
					"description": "Lists the available routes and the first and last measurement dates",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "HTML index page",
							"content": map[string]interface{}{
								"text/html": map[string]interface{}{"schema": map[string]string{"type": "string"}},
							},
						},
						"500": errorResponse("Empty dataset"),
					},
				},
			},
			APIPrefix + "/precipitation": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Daily maximum precipitation",
					"description": "Largest precipitation reported by any station for each date of the year ending at the most recent measurement date. Dates with no reported value are omitted.",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Object keyed by date in ascending order",
							"content": jsonContent(map[string]interface{}{
								"type":                 "object",
								"additionalProperties": map[string]string{"type": "number"},
							}),
						},
						"500": errorResponse("Empty dataset"),
					},
				},
			},
			APIPrefix + "/stations": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Station directory",
					"description": "All stations keyed by station id",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Object keyed by station id",
							"content": jsonContent(map[string]interface{}{
								"type": "object",
								"additionalProperties": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"name":      map[string]string{"type": "string"},
										"latitude":  nullableNumber,
										"longitude": nullableNumber,
										"elevation": nullableNumber,
									},
								},
							}),
						},
					},
				},
			},
			APIPrefix + "/tobs": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Temperature observations of the most active station",
					"description": "Dates and temperatures of the station with the most measurements, over the year ending at that station's own latest measurement",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Parallel arrays ordered by date",
							"content": jsonContent(map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"date": map[string]interface{}{"type": "array", "items": map[string]string{"type": "string", "format": "date"}},
									"tobs": map[string]interface{}{"type": "array", "items": nullableNumber},
								},
							}),
						},
						"500": errorResponse("Empty dataset or unknown station"),
					},
				},
			},
			APIPrefix + "/{start}": statsOperation(
				"Temperature statistics from a start date",
				"Min, mean and max temperature of the most active station from start onwards",
				dateParam("start", "First date, inclusive (YYYY-MM-DD)"),
			),
			APIPrefix + "/{start}/{end}": statsOperation(
				"Temperature statistics for a date range",
				"Min, mean and max temperature of the most active station between start and end",
				dateParam("start", "First date, inclusive (YYYY-MM-DD)"),
				dateParam("end", "Last date, inclusive (YYYY-MM-DD)"),
			),
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Reports whether the dataset is reachable",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "API is healthy"},
						"503": map[string]interface{}{"description": "Dataset unreachable"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"RangeStats": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"station": map[string]string{"type": "string"},
						"TMIN":    nullableNumber,
						"TAVG":    nullableNumber,
						"TMAX":    nullableNumber,
					},
				},
				"Error": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"error":   map[string]string{"type": "string"},
						"message": map[string]string{"type": "string"},
						"code":    map[string]string{"type": "integer"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
