package dto

type OKResponse struct {
	OK bool `json:"ok"`
}
