package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrelationHeader carries the caller-supplied correlation id.
const CorrelationHeader = "X-Correlation-Id"

// Breadcrumb is the audit stamp attached to mutating operations.
type Breadcrumb struct {
	AtTime        time.Time `json:"at_time" bson:"at_time"`
	ByUser        string    `json:"by_user" bson:"by_user"`
	FromIP        string    `json:"from_ip" bson:"from_ip"`
	CorrelationID string    `json:"correlation_id" bson:"correlation_id"`
}

// NewBreadcrumb builds a breadcrumb for the current request. The correlation
// id is taken from the request header, or generated when absent.
func NewBreadcrumb(c *gin.Context) Breadcrumb {
	claims, _ := Token(c)

	correlationID := c.GetHeader(CorrelationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	return Breadcrumb{
		AtTime:        time.Now().UTC(),
		ByUser:        claims.UserID(),
		FromIP:        c.ClientIP(),
		CorrelationID: correlationID,
	}
}
