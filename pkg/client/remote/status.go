package remote

import (
	"fmt"
	"net/http"
)

func succeeded(resp *http.Response) bool {
	return resp.StatusCode/100 == 2
}

// statusClass names the class of the response status, for error details.
func statusClass(resp *http.Response) string {
	switch resp.StatusCode / 100 {
	case 1:
		return "informational response"
	case 2:
		return "success"
	case 3:
		return "redirect"
	case 4:
		return "client error"
	case 5:
		return "server error"
	default:
		return fmt.Sprintf("unknown (%d)", resp.StatusCode)
	}
}
