package dto

type ErrorResponse struct {
	Error string `json:"error"`
}

type LoginRequest struct {
	Thumbprint string `json:"thumbprint"`
}

type LoginResponse struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

type SubmissionResponse struct {
	Outcomes []string `json:"outcomes"`
}
