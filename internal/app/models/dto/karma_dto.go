package dto

// SubmitActivityRequest claims karma for a task
type SubmitActivityRequest struct {
	Hashtag  string `json:"hashtag" binding:"required,hashtag" example:"#lcmeetreport"`
	ProofURL string `json:"proofUrl" binding:"omitempty,url,max=500"`
}

// AppraiseRequest approves or rejects a pending activity
type AppraiseRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}
