package handler

type registerSourceRequest struct {
	Name string `json:"name"`
}

type publishContentRequest struct {
	Fingerprint string `json:"fingerprint"`
	ContentType string `json:"content_type"`
}

type recordModificationRequest struct {
	Fingerprint string `json:"fingerprint"`
	Description string `json:"description"`
}

type adjustCredibilityRequest struct {
	Delta int `json:"delta"`
}

type setVerifiedRequest struct {
	Verified bool `json:"verified"`
}

type recordModificationResponse struct {
	Index int `json:"index"`
}

type contentListResponse struct {
	Publisher  string   `json:"publisher"`
	ContentIDs []string `json:"content_ids"`
}
