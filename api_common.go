package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lagoonpms/resort_backend/models"
	"github.com/lagoonpms/resort_backend/utils"
)

const propertyHeader = "X-Property-Id"

// propertyMiddleware resolves the acting property from the request header and
// threads it through the request context; every model operation scopes by it.
func propertyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		propertyId := c.GetHeader(propertyHeader)
		if propertyId == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   propertyHeader + " header is required",
			})
			return
		}
		ctx := utils.SetPropertyIdInContext(c.Request.Context(), propertyId)
		if userId := c.GetHeader("X-User-Id"); userId != "" {
			if id, err := strconv.Atoi(userId); err == nil {
				ctx = utils.SetUserIdInContext(ctx, id)
			}
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError maps the ledger error taxonomy onto HTTP statuses. Anything
// unclassified is treated as a persistence failure and kept vague.
func respondError(c *gin.Context, err error) {
	var le *models.LedgerError
	if !errors.As(err, &le) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch le.Kind {
	case models.ErrorKindValidation:
		status = http.StatusBadRequest
	case models.ErrorKindNotFound:
		status = http.StatusNotFound
	case models.ErrorKindPrecondition:
		status = http.StatusConflict
	case models.ErrorKindInsufficientStock:
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   le.Message,
		"kind":    string(le.Kind),
	})
}

func queryInt(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func queryDate(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// queryEndDate parses an end-bound date parameter. A bare date covers the
// whole day, matching how settlement periods treat their end date.
func queryEndDate(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		return &end
	}
	return nil
}

func pathInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
