package handler

import "github.com/labstack/echo/v4"

// envelope is the success wrapper every 2xx payload is rendered in. Results
// appears on collection responses only.
type envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// respond writes a single document (or token payload) in the envelope.
func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{Status: "success", Data: data})
}

// respondList writes a collection with its result count.
func respondList(c echo.Context, code int, results int, data any) error {
	return c.JSON(code, envelope{Status: "success", Results: &results, Data: data})
}
