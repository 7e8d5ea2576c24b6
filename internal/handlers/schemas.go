package handlers

import "time"

type APIShortenRequest struct {
	URL string `json:"url"` // Оригинальный длинный URL, требующий укорачивания
}

type APIShortenResult struct {
	Result string `json:"result"` // Короткий URL, превращенный из длинного
}

type APIShortenBatchRequestItem struct {
	CorrelationID string `json:"correlation_id"`
	OriginalURL   string `json:"original_url"`
}

type APIShortenBatchResultItem struct {
	CorrelationID string `json:"correlation_id"`
	ShortURL      string `json:"short_url"`
}

type APIURLStats struct {
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	Hits        int64     `json:"hits"`
	CreatedAt   time.Time `json:"created_at"`
}
