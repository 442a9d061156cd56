package public

import (
	handlershared "github.com/node-dojo/dojo-store-api/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getUserEmail(c *gin.Context) (string, bool) {
	return handlershared.GetContextEmail(c, handlershared.ContextKeyUserEmail)
}
