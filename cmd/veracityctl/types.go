package main

import "time"

type sourceResponse struct {
	Identity          string    `json:"identity"`
	Name              string    `json:"name"`
	CredibilityScore  int       `json:"credibility_score"`
	TotalPublications uint64    `json:"total_publications"`
	IsVerified        bool      `json:"is_verified"`
	RegisteredAt      time.Time `json:"registered_at"`
}

type contentResponse struct {
	ContentID          string    `json:"content_id"`
	Fingerprint        string    `json:"fingerprint"`
	Publisher          string    `json:"publisher"`
	PublishedAt        time.Time `json:"published_at"`
	ContentType        string    `json:"content_type"`
	CredibilityScore   int       `json:"credibility_score"`
	IsVerified         bool      `json:"is_verified"`
	ModificationsCount int       `json:"modifications_count"`
}

type modificationResponse struct {
	Fingerprint string    `json:"fingerprint"`
	Description string    `json:"description"`
	ModifiedAt  time.Time `json:"modified_at"`
	ModifiedBy  string    `json:"modified_by"`
}

type contentListResponse struct {
	Publisher  string   `json:"publisher"`
	ContentIDs []string `json:"content_ids"`
}

type modificationIndexResponse struct {
	Index int `json:"index"`
}
