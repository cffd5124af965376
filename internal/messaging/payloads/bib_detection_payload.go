package payloads

// BibDetectionPayload задача распознавания номера для уже сохранённого фото
type BibDetectionPayload struct {
	PhotoID string `json:"photo_id"`
	EventID string `json:"event_id"`
}
