package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/errs"
)

// respondError maps a taxonomy error to its HTTP status. Internal faults
// are logged in full and reported with a generic message in release mode.
func respondError(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		if gin.Mode() == gin.ReleaseMode {
			message = "internal server error"
		}
	}
	c.JSON(status, gin.H{"error": message})
}
