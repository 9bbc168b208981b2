package transfer

// GraphIDResponse is returned by container creation, media_publish and the
// Facebook page endpoints.
type GraphIDResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

type ContainerStatusResponse struct {
	ID         string `json:"id"`
	StatusCode string `json:"status_code"`
	Status     string `json:"status"`
}

type GraphErrorResponse struct {
	Error *GraphError `json:"error"`
}

type GraphError struct {
	Message        string `json:"message"`
	Type           string `json:"type"`
	Code           int    `json:"code"`
	ErrorSubcode   int    `json:"error_subcode"`
	IsTransient    bool   `json:"is_transient"`
	ErrorUserTitle string `json:"error_user_title"`
	ErrorUserMsg   string `json:"error_user_msg"`
	FbtraceID      string `json:"fbtrace_id"`
}
