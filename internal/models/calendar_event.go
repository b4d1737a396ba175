package models

// CalendarEvent is the normalized event shape served to the calendar front-end.
type CalendarEvent struct {
	Title string `json:"title"`
	Start string `json:"start"`
	URL   string `json:"url"`
}
