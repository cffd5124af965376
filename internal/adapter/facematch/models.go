package facematch

type enrollRequest struct {
	PhotoID  string `json:"photo_id"`
	ImageURL string `json:"image_url"`
}

type searchRequest struct {
	ImageURL string `json:"image_url"`
}

// searchResponse ответ поиска; пустой matches означает "совпадений нет"
type searchResponse struct {
	Matches []struct {
		PhotoID    string  `json:"photo_id"`
		Confidence float64 `json:"confidence"`
	} `json:"matches"`
}
