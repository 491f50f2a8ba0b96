package models

// ScoreResult is the outcome of grading one submission, produced either by
// the model-backed scorer or by the keyword fallback.
type ScoreResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// ReviewRequest is the body posted to the gateway's per-submission review endpoint.
type ReviewRequest struct {
	Score    int    `json:"Score"`
	Status   string `json:"Status"`
	Feedback string `json:"Feedback"`
}

const ReviewStatusReviewed = "Reviewed"
