package admin

import (
	handlershared "github.com/node-dojo/dojo-store-api/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminEmail(c *gin.Context) (string, bool) {
	return handlershared.GetContextEmail(c, handlershared.ContextKeyAdminEmail)
}
