package external_apis

import "time"

// newsAPIResponse mirrors the NewsAPI.org /v2/everything payload.
type newsAPIResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code,omitempty"`
	Message      string `json:"message,omitempty"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// NewsArticle is a single article returned by the news search.
type NewsArticle struct {
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	URL         string    `bson:"url" json:"url"`
	SourceName  string    `bson:"sourceName" json:"sourceName"`
	PublishedAt time.Time `bson:"publishedAt" json:"publishedAt"`
}
