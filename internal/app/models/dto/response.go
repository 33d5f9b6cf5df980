package dto

import "net/http"

// APIResponse is the envelope wrapped around every JSON response
type APIResponse struct {
	HasError   bool                `json:"hasError" example:"false"`
	StatusCode int                 `json:"statusCode" example:"200"`
	Message    map[string][]string `json:"message"`
	Response   interface{}         `json:"response"`
}

// GeneralMessageKey holds messages that are not tied to a request field
const GeneralMessageKey = "general"

// NewSuccessResponse wraps data with optional general messages
func NewSuccessResponse(status int, data interface{}, messages ...string) APIResponse {
	if data == nil {
		data = struct{}{}
	}
	return APIResponse{
		HasError:   false,
		StatusCode: status,
		Message:    generalMessage(messages),
		Response:   data,
	}
}

// NewErrorResponse builds a failure envelope with general messages
func NewErrorResponse(status int, messages ...string) APIResponse {
	if len(messages) == 0 {
		messages = []string{http.StatusText(status)}
	}
	return APIResponse{
		HasError:   true,
		StatusCode: status,
		Message:    generalMessage(messages),
		Response:   struct{}{},
	}
}

// NewValidationErrorResponse builds a 400 envelope with messages keyed by field
func NewValidationErrorResponse(fields map[string][]string) APIResponse {
	return APIResponse{
		HasError:   true,
		StatusCode: http.StatusBadRequest,
		Message:    fields,
		Response:   struct{}{},
	}
}

func generalMessage(messages []string) map[string][]string {
	if len(messages) == 0 {
		return map[string][]string{}
	}
	return map[string][]string{GeneralMessageKey: messages}
}

// PaginationInfo describes one page of a list
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage" example:"1"`
	TotalPages  int   `json:"totalPages" example:"5"`
	PageSize    int   `json:"pageSize" example:"10"`
	TotalItems  int64 `json:"totalItems" example:"42"`
}

// PaginatedResponse represents a paginated list with metadata
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationInfo `json:"pagination"`
}
